package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

// PostgresStore reads identities from PostgreSQL. Pure I/O; active-only
// filtering for credential lookups happens in SQL so inactive identities can
// never resolve.
//
// Expected schema:
//
//	CREATE TABLE identities (
//	    id             UUID PRIMARY KEY,
//	    national_id    TEXT NOT NULL,
//	    first_name     TEXT NOT NULL,
//	    last_name      TEXT NOT NULL,
//	    qr_token       TEXT NOT NULL,
//	    pin            TEXT NOT NULL,
//	    face_embedding JSONB,
//	    active         BOOLEAN NOT NULL DEFAULT TRUE
//	);
//	CREATE UNIQUE INDEX identities_qr_token_active ON identities (qr_token) WHERE active;
//	CREATE UNIQUE INDEX identities_pin_active ON identities (pin) WHERE active;
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, national_id, first_name, last_name, qr_token, pin, face_embedding, active`

func (s *PostgresStore) FindByID(ctx context.Context, identityID id.IdentityID) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, identityID.String())
	ident, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return ident, nil
}

func (s *PostgresStore) FindByQRToken(ctx context.Context, token string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE qr_token = $1 AND active`, token)
	ident, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by qr token: %w", err)
	}
	return ident, nil
}

func (s *PostgresStore) FindByPIN(ctx context.Context, pin string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE pin = $1 AND active`, pin)
	ident, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by pin: %w", err)
	}
	return ident, nil
}

func (s *PostgresStore) ListActiveWithEmbeddings(ctx context.Context) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities
		 WHERE active AND face_embedding IS NOT NULL AND jsonb_array_length(face_embedding) > 0`)
	if err != nil {
		return nil, fmt.Errorf("list identities with embeddings: %w", err)
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, *ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*Identity, error) {
	var (
		ident        Identity
		rawID        string
		rawEmbedding []byte
	)
	if err := row.Scan(&rawID, &ident.NationalID, &ident.FirstName, &ident.LastName,
		&ident.QRToken, &ident.PIN, &rawEmbedding, &ident.Active); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse identity id: %w", err)
	}
	ident.ID = id.IdentityID(parsed)
	if len(rawEmbedding) > 0 {
		if err := json.Unmarshal(rawEmbedding, &ident.FaceEmbedding); err != nil {
			return nil, fmt.Errorf("decode face embedding: %w", err)
		}
	}
	return &ident, nil
}
