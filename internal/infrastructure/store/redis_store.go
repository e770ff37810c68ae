package store

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/opsdesk/opsdesk/internal/core/domain"
)

const (
	identityKey = "session:identity"
	tokenKey    = "session:token"
)

// RedisStore keeps the credential snapshot in Redis under two fixed keys
// beneath a per-installation prefix. Used on kiosk terminals where the desk
// profile outlives any single workstation.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an established Redis client. The prefix isolates
// installations sharing one Redis instance.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "opsdesk"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

// Save writes both values atomically.
func (s *RedisStore) Save(ctx context.Context, identity *domain.Identity, token string) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(identityKey), data, 0)
		pipe.Set(ctx, s.key(tokenKey), token, 0)
		return nil
	})
	return err
}

// Load returns both values or reports absent. Either value missing or the
// identity failing to decode reads as absent.
func (s *RedisStore) Load(ctx context.Context) (*domain.Identity, string, bool) {
	vals, err := s.client.MGet(ctx, s.key(identityKey), s.key(tokenKey)).Result()
	if err != nil || len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, "", false
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, "", false
	}
	token, ok := vals[1].(string)
	if !ok || token == "" {
		return nil, "", false
	}

	var identity domain.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil || identity.ID == "" {
		return nil, "", false
	}
	return &identity, token, true
}

// Clear removes both values. Idempotent.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key(identityKey), s.key(tokenKey)).Err()
}
