package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

// PostgresStore reads locations from PostgreSQL. Method flags are stored as
// boolean columns per method and direction, mirroring the admin subsystem's
// schema:
//
//	CREATE TABLE locations (
//	    id             UUID PRIMARY KEY,
//	    name           TEXT NOT NULL,
//	    type           TEXT NOT NULL,
//	    entry_qr       BOOLEAN NOT NULL DEFAULT FALSE,
//	    entry_pin      BOOLEAN NOT NULL DEFAULT FALSE,
//	    entry_photo    BOOLEAN NOT NULL DEFAULT FALSE,
//	    exit_qr        BOOLEAN NOT NULL DEFAULT FALSE,
//	    exit_pin       BOOLEAN NOT NULL DEFAULT FALSE,
//	    exit_photo     BOOLEAN NOT NULL DEFAULT FALSE
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, locationID id.LocationID) (*Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, entry_qr, entry_pin, entry_photo, exit_qr, exit_pin, exit_photo
		FROM locations
		WHERE id = $1
	`, locationID.String())

	var (
		loc   Location
		rawID string

		entryQR, entryPIN, entryPhoto bool
		exitQR, exitPIN, exitPhoto    bool
	)
	if err := row.Scan(&rawID, &loc.Name, &loc.Type,
		&entryQR, &entryPIN, &entryPhoto, &exitQR, &exitPIN, &exitPhoto); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find location: %w", err)
	}

	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse location id: %w", err)
	}
	loc.ID = id.LocationID(parsed)
	loc.EntryMethods = methodSet(entryQR, entryPIN, entryPhoto)
	loc.ExitMethods = methodSet(exitQR, exitPIN, exitPhoto)
	return &loc, nil
}

func methodSet(qr, pin, photo bool) id.MethodSet {
	set := id.NewMethodSet()
	if qr {
		set.Add(id.MethodQR)
	}
	if pin {
		set.Add(id.MethodPIN)
	}
	if photo {
		set.Add(id.MethodPhoto)
	}
	return set
}
