package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	id "kioskgate/pkg/domain"
)

// KafkaPublisher streams appended ledger entries to a topic for the external
// reporting collaborator. The ledger store remains the source of truth;
// publishing is fire-and-forget so a broker outage never blocks or fails an
// access decision.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure ledger topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure ledger topic %q: %w", topic, resp.Err)
	}

	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// streamEntry is the wire shape of one published entry.
type streamEntry struct {
	ID         string    `json:"id"`
	Direction  string    `json:"direction"`
	IdentityID *string   `json:"identity_id,omitempty"`
	LocationID string    `json:"location_id"`
	Methods    []string  `json:"methods_used"`
	Success    bool      `json:"success"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash"`
}

// Publish produces the entry asynchronously, keyed by location so per-location
// ordering survives partitioning. Failures are logged, never surfaced.
func (p *KafkaPublisher) Publish(ctx context.Context, entry Entry) {
	wire := streamEntry{
		ID:         entry.ID.String(),
		Direction:  entry.Direction.String(),
		LocationID: entry.LocationID.String(),
		Methods:    methodStrings(entry.Methods),
		Success:    entry.Success,
		Reason:     entry.Reason,
		Timestamp:  entry.Timestamp,
		Hash:       entry.Hash,
	}
	if entry.IdentityID != nil {
		s := entry.IdentityID.String()
		wire.IdentityID = &s
	}

	value, err := json.Marshal(wire)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode ledger stream entry", "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.LocationID.String()),
		Value: value,
	}
	// The record outlives the request; a cancelled handler context must not
	// drop a buffered entry.
	p.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.ErrorContext(ctx, "publish ledger entry to stream",
				"entry_id", entry.ID,
				"error", err,
			)
		}
	})
}

// Close flushes outstanding records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		p.client.Close()
		return fmt.Errorf("flush ledger stream: %w", err)
	}
	p.client.Close()
	return nil
}

func methodStrings(methods []id.MethodKind) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.String()
	}
	return out
}
