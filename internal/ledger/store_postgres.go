package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

// PostgresStore persists ledger entries in PostgreSQL. The unique index on
// the content hash is the duplicate-append guard; a violation surfaces as
// sentinel.ErrConflict.
//
// Expected schema:
//
//	CREATE TABLE ledger_entries (
//	    id          UUID PRIMARY KEY,
//	    direction   TEXT NOT NULL,
//	    identity_id UUID,
//	    location_id UUID NOT NULL,
//	    methods     TEXT NOT NULL,
//	    success     BOOLEAN NOT NULL,
//	    reason      TEXT NOT NULL DEFAULT '',
//	    ts          TIMESTAMPTZ NOT NULL,
//	    hash        TEXT NOT NULL UNIQUE
//	);
//	CREATE INDEX ledger_entries_identity_ts ON ledger_entries (identity_id, ts);
//	CREATE INDEX ledger_entries_ts ON ledger_entries (ts);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, direction, identity_id, location_id, methods, success, reason, ts, hash`

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	var identityID any
	if entry.IdentityID != nil {
		identityID = entry.IdentityID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, direction, identity_id, location_id, methods, success, reason, ts, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID.String(), entry.Direction.String(), identityID, entry.LocationID.String(),
		encodeMethods(entry.Methods), entry.Success, entry.Reason, entry.Timestamp, entry.Hash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, entryID id.EntryID) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, entryID.String())
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find ledger entry by id: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE hash = $1`, hash)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find ledger entry by hash: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE identity_id = $1 ORDER BY ts`, identityID.String())
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by identity: %w", err)
	}
	return collectEntries(rows)
}

func (s *PostgresStore) ListByTimeRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE ts >= $1 AND ts < $2 ORDER BY ts`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by time range: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return out, nil
}

func scanEntry(row interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry        Entry
		rawID        string
		rawDirection string
		rawIdentity  sql.NullString
		rawLocation  string
		rawMethods   string
	)
	if err := row.Scan(&rawID, &rawDirection, &rawIdentity, &rawLocation,
		&rawMethods, &entry.Success, &entry.Reason, &entry.Timestamp, &entry.Hash); err != nil {
		return nil, err
	}

	entryUUID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse entry id: %w", err)
	}
	entry.ID = id.EntryID(entryUUID)
	entry.Direction = id.Direction(rawDirection)

	locationUUID, err := uuid.Parse(rawLocation)
	if err != nil {
		return nil, fmt.Errorf("parse location id: %w", err)
	}
	entry.LocationID = id.LocationID(locationUUID)

	if rawIdentity.Valid {
		identityUUID, err := uuid.Parse(rawIdentity.String)
		if err != nil {
			return nil, fmt.Errorf("parse identity id: %w", err)
		}
		identityID := id.IdentityID(identityUUID)
		entry.IdentityID = &identityID
	}

	entry.Methods = decodeMethods(rawMethods)
	return &entry, nil
}

// Methods are stored as a comma-joined list in canonical order; three known
// values make a join column simpler than an array type here.
func encodeMethods(methods []id.MethodKind) string {
	sorted := append([]id.MethodKind(nil), methods...)
	id.SortMethods(sorted)
	parts := make([]string, len(sorted))
	for i, m := range sorted {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

func decodeMethods(raw string) []id.MethodKind {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]id.MethodKind, 0, len(parts))
	for _, p := range parts {
		out = append(out, id.MethodKind(p))
	}
	return out
}
