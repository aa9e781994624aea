// Package redis implements a Redis-backed session store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"portal/internal/domain"
)

const defaultPrefix = "session:"

var _ domain.SessionRepository = (*SessionStore)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// SessionStore keeps sessions as JSON values that Redis expires on its own.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: defaultPrefix,
	}
}

func (r *SessionStore) key(token string) string {
	return r.prefix + token
}

// Create stores s until its expiry.
func (r *SessionStore) Create(ctx context.Context, s *domain.Session) error {
	if s.Token == "" {
		return errors.New("session: missing token")
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session: expires_at must be in the future")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(s.Token), data, ttl).Err()
}

// GetByToken returns nil, nil when the key is absent or has expired.
func (r *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	val, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s domain.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &s, nil
}

// Delete removes a session.
func (r *SessionStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

// DeleteExpired is a no-op; Redis evicts keys when their TTL elapses.
func (r *SessionStore) DeleteExpired(ctx context.Context) error {
	return nil
}

// Ping verifies Redis is reachable.
func (r *SessionStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
