package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kioskgate/internal/kiosk/secrets"
	"kioskgate/internal/location"
	"kioskgate/internal/token"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/sentinel"
	"kioskgate/pkg/requestcontext"
)

// Enrollment is the one-time result of registering a kiosk. Secret is the
// only copy of the plaintext; the store keeps just the hash.
type Enrollment struct {
	Kiosk  *Kiosk
	Secret string
}

// Grant is an issued bearer token.
type Grant struct {
	Token     string
	ExpiresAt time.Time
}

// Service manages the device registry and the secret-for-token exchange.
type Service struct {
	store     Store
	locations location.Store
	tokens    *token.Manager
	logger    *slog.Logger
}

func NewService(store Store, locations location.Store, tokens *token.Manager, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("kiosk store is required")
	}
	if locations == nil {
		return nil, fmt.Errorf("location store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	return &Service{store: store, locations: locations, tokens: tokens, logger: logger}, nil
}

// Register enrolls a kiosk at a location and returns the plaintext secret
// exactly once.
func (s *Service) Register(ctx context.Context, name string, locationID id.LocationID) (*Enrollment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "kiosk name is required")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "kiosk name must be 128 characters or less")
	}

	if _, err := s.locations.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, fmt.Errorf("load location: %w", err)
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, err
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	k := &Kiosk{
		ID:         id.NewKioskID(),
		Name:       name,
		LocationID: locationID,
		SecretHash: hash,
		Active:     true,
		LastSeenAt: now,
		CreatedAt:  now,
	}
	if err := s.store.Create(ctx, k); err != nil {
		return nil, fmt.Errorf("register kiosk: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "kiosk registered",
			"kiosk_id", k.ID,
			"location_id", locationID,
			"name", name,
		)
	}
	return &Enrollment{Kiosk: k.Clone(), Secret: secret}, nil
}

// Authenticate exchanges the enrollment secret for a short-lived kiosk token
// and records a heartbeat.
func (s *Service) Authenticate(ctx context.Context, kioskID id.KioskID, secret string) (*Grant, error) {
	k, err := s.store.FindByID(ctx, kioskID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Same code as a bad secret so probing cannot enumerate kiosks.
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid kiosk credentials")
		}
		return nil, fmt.Errorf("load kiosk: %w", err)
	}
	if !k.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "kiosk is deactivated")
	}
	if err := secrets.Verify(secret, k.SecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid kiosk credentials")
		}
		return nil, err
	}

	signed, expiresAt, err := s.tokens.Issue(token.RoleKiosk, kioskID.String())
	if err != nil {
		return nil, fmt.Errorf("issue kiosk token: %w", err)
	}
	if err := s.store.Touch(ctx, kioskID, requestcontext.Now(ctx)); err != nil {
		return nil, fmt.Errorf("record kiosk heartbeat: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "kiosk authenticated", "kiosk_id", kioskID)
	}
	return &Grant{Token: signed, ExpiresAt: expiresAt}, nil
}

// Heartbeat moves the kiosk's last-seen time forward.
func (s *Service) Heartbeat(ctx context.Context, kioskID id.KioskID) error {
	if err := s.store.Touch(ctx, kioskID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "kiosk not found")
		}
		return fmt.Errorf("record kiosk heartbeat: %w", err)
	}
	return nil
}

// List returns all registered kiosks.
func (s *Service) List(ctx context.Context) ([]Kiosk, error) {
	kiosks, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kiosks: %w", err)
	}
	return kiosks, nil
}

// PruneOffline deactivates kiosks silent for longer than maxSilence. Run
// periodically from the server's background loop.
func (s *Service) PruneOffline(ctx context.Context, maxSilence time.Duration) (int, error) {
	count, err := s.store.DeactivateUnseenSince(ctx, time.Now().Add(-maxSilence))
	if err != nil {
		return 0, fmt.Errorf("prune offline kiosks: %w", err)
	}
	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "offline kiosks deactivated", "count", count)
	}
	return count, nil
}
