package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/sentinel"
)

// RedisStore keeps sessions in Redis so several kiosk frontends can share
// them. Compare-and-swap uses WATCH: the transaction aborts when another
// writer touched the key between read and write, which maps to
// sentinel.ErrConflict exactly like the in-memory version check.
//
// Idle expiry is delegated to Redis: every write refreshes a TTL slightly
// above the idle timeout, so abandoned sessions vanish without a sweeper.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, idleTimeout time.Duration) *RedisStore {
	// Keep keys a bit beyond the idle window so the sweep-vs-expiry race
	// favors the explicit abort path.
	return &RedisStore{client: client, ttl: idleTimeout + 30*time.Second}
}

func sessionKey(sessionID id.SessionID) string {
	return "kioskgate:session:" + sessionID.String()
}

// redisSession is the stored wire shape of a Session.
type redisSession struct {
	ID             string    `json:"id"`
	LocationID     string    `json:"location_id"`
	Direction      string    `json:"direction"`
	Required       []string  `json:"required"`
	Completed      []string  `json:"completed"`
	BoundIdentity  *string   `json:"bound_identity,omitempty"`
	State          string    `json:"state"`
	Awaiting       string    `json:"awaiting,omitempty"`
	DenyReason     string    `json:"deny_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	Version        int64     `json:"version"`
}

func (s *RedisStore) Create(ctx context.Context, sess *Session) error {
	sess.Version = 1
	raw, err := encodeSession(sess)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, sessionKey(sess.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(raw)
}

func (s *RedisStore) Update(ctx context.Context, sess *Session) error {
	key := sessionKey(sess.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("read session for update: %w", err)
		}
		stored, err := decodeSession(raw)
		if err != nil {
			return err
		}
		if stored.Version != sess.Version {
			return sentinel.ErrConflict
		}

		sess.Version++
		encoded, err := encodeSession(sess)
		if err != nil {
			sess.Version--
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err != nil {
			sess.Version--
		}
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListIdleSince returns nothing: Redis TTL releases idle sessions natively.
func (s *RedisStore) ListIdleSince(context.Context, time.Time) ([]Session, error) {
	return nil, nil
}

func encodeSession(sess *Session) ([]byte, error) {
	wire := redisSession{
		ID:             sess.ID.String(),
		LocationID:     sess.LocationID.String(),
		Direction:      sess.Direction.String(),
		Required:       methodsToStrings(sess.Required),
		Completed:      methodsToStrings(sess.Completed.Sorted()),
		State:          string(sess.State),
		Awaiting:       sess.Awaiting.String(),
		DenyReason:     sess.DenyReason,
		CreatedAt:      sess.CreatedAt,
		LastActivityAt: sess.LastActivityAt,
		Version:        sess.Version,
	}
	if sess.BoundIdentity != nil {
		bound := sess.BoundIdentity.String()
		wire.BoundIdentity = &bound
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return raw, nil
}

func decodeSession(raw []byte) (*Session, error) {
	var wire redisSession
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	sessionUUID, err := uuid.Parse(wire.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	locationUUID, err := uuid.Parse(wire.LocationID)
	if err != nil {
		return nil, fmt.Errorf("parse session location id: %w", err)
	}

	sess := &Session{
		ID:             id.SessionID(sessionUUID),
		LocationID:     id.LocationID(locationUUID),
		Direction:      id.Direction(wire.Direction),
		Required:       stringsToMethods(wire.Required),
		Completed:      id.NewMethodSet(stringsToMethods(wire.Completed)...),
		State:          State(wire.State),
		Awaiting:       id.MethodKind(wire.Awaiting),
		DenyReason:     wire.DenyReason,
		CreatedAt:      wire.CreatedAt,
		LastActivityAt: wire.LastActivityAt,
		Version:        wire.Version,
	}
	if wire.BoundIdentity != nil {
		identityUUID, err := uuid.Parse(*wire.BoundIdentity)
		if err != nil {
			return nil, fmt.Errorf("parse bound identity id: %w", err)
		}
		bound := id.IdentityID(identityUUID)
		sess.BoundIdentity = &bound
	}
	return sess, nil
}

func methodsToStrings(methods []id.MethodKind) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.String()
	}
	return out
}

func stringsToMethods(raw []string) []id.MethodKind {
	out := make([]id.MethodKind, len(raw))
	for i, r := range raw {
		out[i] = id.MethodKind(r)
	}
	return out
}
