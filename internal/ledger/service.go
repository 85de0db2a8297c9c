package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/sentinel"
)

// Stream receives every appended entry for downstream consumers. The Kafka
// publisher implements it; a nil stream disables fan-out.
type Stream interface {
	Publish(ctx context.Context, entry Entry)
}

// Service owns appends and read-only queries. It computes the content hash,
// translates store conflicts into the duplicate-entry error, and fans
// appended entries out to the stream. It exposes nothing that could mutate an
// existing entry.
type Service struct {
	store  Store
	stream Stream
	logger *slog.Logger
}

func NewService(store Store, stream Stream, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	return &Service{store: store, stream: stream, logger: logger}, nil
}

// Record hashes and appends a draft. A draft identical to an already-recorded
// one (same payload, same timestamp) fails with the duplicate-entry code;
// this guards against accidental double submission, not tampering.
func (s *Service) Record(ctx context.Context, draft Draft) (*Entry, error) {
	if draft.Timestamp.IsZero() {
		draft.Timestamp = time.Now()
	}
	entry := Entry{
		ID:         id.NewEntryID(),
		Direction:  draft.Direction,
		IdentityID: draft.IdentityID,
		LocationID: draft.LocationID,
		Methods:    append([]id.MethodKind(nil), draft.Methods...),
		Success:    draft.Success,
		Reason:     draft.Reason,
		Timestamp:  draft.Timestamp,
		Hash:       ContentHash(draft),
	}
	id.SortMethods(entry.Methods)

	if err := s.store.Append(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicateEntry, "an identical ledger entry already exists")
		}
		return nil, fmt.Errorf("record ledger entry: %w", err)
	}

	if s.stream != nil {
		s.stream.Publish(ctx, entry)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ledger entry recorded",
			"entry_id", entry.ID,
			"location_id", entry.LocationID,
			"direction", entry.Direction,
			"success", entry.Success,
			"reason", entry.Reason,
		)
	}
	return &entry, nil
}

func (s *Service) GetByID(ctx context.Context, entryID id.EntryID) (*Entry, error) {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ledger entry not found")
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return entry, nil
}

func (s *Service) GetByHash(ctx context.Context, hash string) (*Entry, error) {
	entry, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ledger entry not found")
		}
		return nil, fmt.Errorf("get ledger entry by hash: %w", err)
	}
	return entry, nil
}

func (s *Service) ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]Entry, error) {
	entries, err := s.store.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by identity: %w", err)
	}
	return entries, nil
}

func (s *Service) ListByTimeRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	if !to.After(from) {
		return nil, dErrors.New(dErrors.CodeValidation, "time range end must be after start")
	}
	entries, err := s.store.ListByTimeRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by time range: %w", err)
	}
	return entries, nil
}
