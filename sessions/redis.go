package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reelops/models"
)

const redisKeyPrefix = "reelops:session:"

// RedisStore keeps sessions as JSON values under reelops:session:<token>,
// letting Redis expire them.
type RedisStore struct {
	conn *redis.Client
	ttl  time.Duration
}

func NewRedisStore(conn *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{conn: conn, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, role models.Role) (models.Session, error) {
	sess, err := newSession(role, s.ttl, time.Now())
	if err != nil {
		return models.Session{}, err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return models.Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.conn.Set(ctx, redisKeyPrefix+sess.Token, data, s.ttl).Err(); err != nil {
		return models.Session{}, fmt.Errorf("redis set session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, models.ErrSessionNotFound
	}
	raw, err := s.conn.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("redis get session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.conn.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
