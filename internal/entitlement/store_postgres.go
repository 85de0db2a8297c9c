package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

// PostgresStore persists entitlement rows in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE entitlements (
//	    identity_id UUID NOT NULL,
//	    location_id UUID NOT NULL,
//	    expires_at  TIMESTAMPTZ,
//	    PRIMARY KEY (identity_id, location_id)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Find(ctx context.Context, identityID id.IdentityID, locationID id.LocationID) (*Entitlement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT identity_id, location_id, expires_at
		FROM entitlements
		WHERE identity_id = $1 AND location_id = $2
	`, identityID.String(), locationID.String())

	ent, err := scanEntitlement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find entitlement: %w", err)
	}
	return ent, nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]Entitlement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity_id, location_id, expires_at
		FROM entitlements
		WHERE identity_id = $1
	`, identityID.String())
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	defer rows.Close()

	var out []Entitlement
	for rows.Next() {
		ent, err := scanEntitlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		out = append(out, *ent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entitlements: %w", err)
	}
	return out, nil
}

// ReplaceForIdentity swaps the identity's entitlement set inside one
// transaction so concurrent permission checks see either the old set or the
// new set, never a partial one.
func (s *PostgresStore) ReplaceForIdentity(ctx context.Context, identityID id.IdentityID, entitlements []Entitlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entitlement replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entitlements WHERE identity_id = $1`, identityID.String()); err != nil {
		return fmt.Errorf("delete old entitlements: %w", err)
	}
	for _, ent := range entitlements {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entitlements (identity_id, location_id, expires_at)
			VALUES ($1, $2, $3)
		`, identityID.String(), ent.LocationID.String(), ent.ExpiresAt); err != nil {
			return fmt.Errorf("insert entitlement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entitlement replace: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entitlements WHERE expires_at IS NOT NULL AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired entitlements: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired entitlements: %w", err)
	}
	return int(affected), nil
}

func scanEntitlement(row interface{ Scan(dest ...any) error }) (*Entitlement, error) {
	var (
		ent               Entitlement
		rawIdentity       string
		rawLocation       string
		expiresAtNullable sql.NullTime
	)
	if err := row.Scan(&rawIdentity, &rawLocation, &expiresAtNullable); err != nil {
		return nil, err
	}
	identityUUID, err := uuid.Parse(rawIdentity)
	if err != nil {
		return nil, fmt.Errorf("parse identity id: %w", err)
	}
	locationUUID, err := uuid.Parse(rawLocation)
	if err != nil {
		return nil, fmt.Errorf("parse location id: %w", err)
	}
	ent.IdentityID = id.IdentityID(identityUUID)
	ent.LocationID = id.LocationID(locationUUID)
	if expiresAtNullable.Valid {
		t := expiresAtNullable.Time
		ent.ExpiresAt = &t
	}
	return &ent, nil
}
