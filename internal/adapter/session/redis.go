package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
)

const keyPrefix = "session:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var _ port.SessionStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewRedisClient parses url (redis://...) and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)

	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func (rs *RedisStore) Create(ctx context.Context, userID int) (port.Session, error) {
	s, err := newSession(userID, rs.ttl, rs.now())

	if err != nil {
		return port.Session{}, err
	}

	if err := rs.write(ctx, s, rs.ttl); err != nil {
		return port.Session{}, err
	}

	return s, nil
}

func (rs *RedisStore) Get(ctx context.Context, id string) (port.Session, error) {
	raw, err := rs.client.Get(ctx, keyPrefix+id).Bytes()

	if errors.Is(err, redis.Nil) {
		return port.Session{}, domain.ErrNotFound
	}

	if err != nil {
		return port.Session{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	var s port.Session

	if err := json.Unmarshal(raw, &s); err != nil {
		return port.Session{}, fmt.Errorf("%w: decode session: %w", domain.ErrPersistence, err)
	}

	if !rs.now().Before(s.ExpiresAt) {
		return port.Session{}, domain.ErrNotFound
	}

	return s, nil
}

func (rs *RedisStore) Save(ctx context.Context, s port.Session) error {
	remaining := s.ExpiresAt.Sub(rs.now())

	if remaining <= 0 {
		_ = rs.Delete(ctx, s.ID)
		return domain.ErrNotFound
	}

	return rs.write(ctx, s, remaining)
}

func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	if err := rs.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	return nil
}

func (rs *RedisStore) write(ctx context.Context, s port.Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)

	if err != nil {
		return err
	}

	if err := rs.client.Set(ctx, keyPrefix+s.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	return nil
}
