package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour

	// pendingMarker occupies a reserved key until the note id replaces it.
	pendingMarker = "pending"
)

// IdempotencyStore remembers which note an Idempotency-Key produced.
// Key format: idempotency:note:<user_id>:<key>
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl falls back to 24h.
func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims (userID, key) with SETNX. It reports false when the key is
// already reserved or remembered.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID int64, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(userID, key), pendingMarker, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

// Lookup returns the note id stored for (userID, key), if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, userID int64, key string) (int64, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	if raw == pendingMarker {
		return 0, false, domain.ErrIdempotencyInProgress
	}

	noteID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: corrupt value %q: %w", raw, err)
	}
	return noteID, true, nil
}

// Remember records noteID for (userID, key), replacing the reservation.
func (s *IdempotencyStore) Remember(ctx context.Context, userID int64, key string, noteID int64) error {
	if err := s.client.Set(ctx, s.key(userID, key), noteID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

// Release drops a reservation so the key can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	if err := s.client.Del(ctx, s.key(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(userID int64, key string) string {
	return fmt.Sprintf("idempotency:note:%d:%s", userID, key)
}
