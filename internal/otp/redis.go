package otp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps codes in Redis so expiry survives restarts and is shared
// across instances. The redis TTL is twice the code lifetime: within the
// grace window an expired code still reads back, so Verify can distinguish
// "expired" from "never issued".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store keyed under "otp:".
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

type redisEntry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Put overwrites any pending code for the email.
func (s *RedisStore) Put(ctx context.Context, email, code string, expiresAt time.Time) error {
	raw, err := json.Marshal(redisEntry{Code: code, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	ttl := 2 * time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, s.prefix+email, raw, ttl).Err()
}

// Get returns the pending code and its logical expiry.
func (s *RedisStore) Get(ctx context.Context, email string) (string, time.Time, error) {
	raw, err := s.client.Get(ctx, s.prefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", time.Time{}, ErrNoCode
		}
		return "", time.Time{}, err
	}
	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return "", time.Time{}, err
	}
	return e.Code, e.ExpiresAt, nil
}

// Delete consumes the pending code.
func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.prefix+email).Err()
}

var _ CodeStore = (*RedisStore)(nil)
