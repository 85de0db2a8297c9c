package kiosk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

// PostgresStore persists kiosks in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE kiosks (
//	    id           UUID PRIMARY KEY,
//	    name         TEXT NOT NULL,
//	    location_id  UUID NOT NULL,
//	    secret_hash  TEXT NOT NULL,
//	    active       BOOLEAN NOT NULL DEFAULT TRUE,
//	    last_seen_at TIMESTAMPTZ NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const kioskColumns = `id, name, location_id, secret_hash, active, last_seen_at, created_at`

func (s *PostgresStore) Create(ctx context.Context, k *Kiosk) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kiosks (`+kioskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		k.ID.String(), k.Name, k.LocationID.String(), k.SecretHash, k.Active, k.LastSeenAt, k.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create kiosk: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, kioskID id.KioskID) (*Kiosk, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+kioskColumns+` FROM kiosks WHERE id = $1`, kioskID.String())
	k, err := scanKiosk(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find kiosk by id: %w", err)
	}
	return k, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Kiosk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+kioskColumns+` FROM kiosks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list kiosks: %w", err)
	}
	defer rows.Close()

	var out []Kiosk
	for rows.Next() {
		k, err := scanKiosk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kiosk: %w", err)
		}
		out = append(out, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kiosks: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Touch(ctx context.Context, kioskID id.KioskID, seenAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE kiosks SET last_seen_at = $2 WHERE id = $1 AND last_seen_at < $2`,
		kioskID.String(), seenAt)
	if err != nil {
		return fmt.Errorf("touch kiosk: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch kiosk: %w", err)
	}
	if affected == 0 {
		// Either missing or the heartbeat is older than the stored one.
		// Distinguish so callers can reject unknown kiosks.
		if _, err := s.FindByID(ctx, kioskID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) DeactivateUnseenSince(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE kiosks SET active = FALSE WHERE active AND last_seen_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate stale kiosks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate stale kiosks: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKiosk(row rowScanner) (*Kiosk, error) {
	var (
		k             Kiosk
		rawID         string
		rawLocationID string
	)
	if err := row.Scan(&rawID, &k.Name, &rawLocationID, &k.SecretHash,
		&k.Active, &k.LastSeenAt, &k.CreatedAt); err != nil {
		return nil, err
	}
	parsedID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse kiosk id: %w", err)
	}
	parsedLocation, err := uuid.Parse(rawLocationID)
	if err != nil {
		return nil, fmt.Errorf("parse kiosk location id: %w", err)
	}
	k.ID = id.KioskID(parsedID)
	k.LocationID = id.LocationID(parsedLocation)
	return &k, nil
}
