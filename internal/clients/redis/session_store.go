package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blog-pulse/internal/config"
	"blog-pulse/internal/services/session"

	goredis "github.com/redis/go-redis/v9"
)

// SessionStore implements session.Store on Redis.
// Sessions are stored as JSON under "<prefix><id>" with TTL = ExpiresAt - now.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore wraps an existing client. Prefix may be empty.
func NewSessionStore(client *goredis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &SessionStore{client: client, prefix: prefix}
}

// Open dials Redis using cfg and verifies the connection with PING
func Open(ctx context.Context, cfg config.Config) (*SessionStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
	}

	return NewSessionStore(client, cfg.RedisKeyPrefix), nil
}

func (r *SessionStore) key(id string) string {
	return r.prefix + id
}

// Save writes s, replacing any previous value and resetting the key TTL
func (r *SessionStore) Save(ctx context.Context, s *session.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	exp := time.Until(s.ExpiresAt)
	if exp <= 0 {
		// keep Redis from storing the key forever
		exp = time.Second
	}
	return r.client.Set(ctx, r.key(s.ID), b, exp).Err()
}

// Get loads the session for id
func (r *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	var s session.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	if s.Expired(time.Now().UTC()) {
		_ = r.client.Del(ctx, r.key(id)).Err()
		return nil, session.ErrNotFound
	}
	return &s, nil
}

// Delete removes the session for id
func (r *SessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// Close releases the underlying client
func (r *SessionStore) Close() error {
	return r.client.Close()
}
