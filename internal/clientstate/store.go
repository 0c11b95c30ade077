package clientstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/impresiones-magicas/storefront/pkg/redis"
)

// Persisted field names. These are the only durable keys a browser session owns.
const (
	KeyToken  = "token"
	KeyUser   = "user"
	KeyCartID = "cartId"
)

// ErrNotFound is returned when a field has no persisted value.
var ErrNotFound = errors.New("clientstate: not found")

// Store persists the per-browser-session fields (the local-storage analogue).
type Store interface {
	Get(ctx context.Context, sessionID, field string) (string, error)
	Set(ctx context.Context, sessionID, field, value string) error
	Delete(ctx context.Context, sessionID string, fields ...string) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ClientStateKey(sessionID, field string) string
}

// RedisStore keeps client state in Redis with a sliding retention TTL.
type RedisStore struct {
	client redisStore
	ttl    time.Duration
}

// NewRedisStore wraps the shared redis client. A non-positive TTL keeps
// entries until explicitly deleted.
func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID, field string) (string, error) {
	if err := validateKey(sessionID, field); err != nil {
		return "", err
	}
	val, err := s.client.Get(ctx, s.client.ClientStateKey(sessionID, field))
	if errors.Is(err, redisclient.ErrNotFound) {
		return "", ErrNotFound
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, sessionID, field, value string) error {
	if err := validateKey(sessionID, field); err != nil {
		return err
	}
	return s.client.Set(ctx, s.client.ClientStateKey(sessionID, field), value, s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string, fields ...string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, s.client.ClientStateKey(sessionID, field))
	}
	return s.client.Del(ctx, keys...)
}

func validateKey(sessionID, field string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("field is required")
	}
	return nil
}
