package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tg-sleep-bot/internal/domain"
)

// RedisStore keeps conversation sessions in Redis as JSON values with a TTL,
// so an abandoned form evaporates instead of lingering forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis builds the store.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(tgUserID int64) string {
	return fmt.Sprintf("session:%d", tgUserID)
}

// Get loads the session for a user; a missing key is an idle session.
func (s *RedisStore) Get(ctx context.Context, tgUserID int64) (domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(tgUserID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// Put stores the session and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, tgUserID int64, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(tgUserID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Delete drops the session.
func (s *RedisStore) Delete(ctx context.Context, tgUserID int64) error {
	return s.client.Del(ctx, sessionKey(tgUserID)).Err()
}
