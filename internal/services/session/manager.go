package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blog-pulse/internal/services/auth"

	"github.com/google/uuid"
)

// Manager drives the login state machine on top of a Store
type Manager struct {
	store   Store
	ttl     time.Duration
	sliding bool
	log     *slog.Logger
	now     func() time.Time
}

// NewManager creates a session manager. With sliding set, every successful
// Resolve pushes expiry out by ttl; otherwise expiry is fixed at creation.
func NewManager(store Store, ttl time.Duration, sliding bool, log *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		ttl:     ttl,
		sliding: sliding,
		log:     log,
		now:     time.Now,
	}
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create opens a new session for user under a fresh random id
func (m *Manager) Create(ctx context.Context, user *auth.User) (*Session, error) {
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		User:      user.Snapshot(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Resolve returns the live session for id, or ErrNotFound
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if s.Expired(now) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}

	if m.sliding {
		s.ExpiresAt = now.Add(m.ttl)
		if err := m.store.Save(ctx, s); err != nil {
			m.log.Warn("failed to extend session", "session_id", s.ID, "error", err)
		}
	}

	return s, nil
}

// Refresh replaces the user snapshot held by s, keeping its expiry
func (m *Manager) Refresh(ctx context.Context, s *Session, user *auth.User) error {
	s.User = user.Snapshot()
	return m.store.Save(ctx, s)
}

// Destroy removes the session named by id and returns it if it was live.
// A missing or expired session yields (nil, nil).
func (m *Manager) Destroy(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}

	s, err := m.store.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := m.store.Delete(ctx, id); err != nil {
		return nil, err
	}

	if s == nil || s.Expired(m.now().UTC()) {
		return nil, nil
	}
	return s, nil
}
