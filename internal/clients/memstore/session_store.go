package memstore

import (
	"context"
	"sync"
	"time"

	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/session"
)

// DefaultJanitorInterval is how often expired sessions are swept
const DefaultJanitorInterval = time.Minute

// SessionStore is an in-process session.Store. Sessions do not survive a restart.
type SessionStore struct {
	mu   sync.RWMutex
	m    map[string]session.Session
	now  func() time.Time
	stop chan struct{}
	once sync.Once
	done chan struct{}
}

// NewSessionStore creates the store and starts a janitor that evicts expired
// sessions every interval. Close stops the janitor.
func NewSessionStore(interval time.Duration) *SessionStore {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	s := &SessionStore{
		m:    make(map[string]session.Session),
		now:  time.Now,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.janitor(interval)
	return s
}

// Save stores a copy of sess
func (s *SessionStore) Save(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	s.m[sess.ID] = *sess
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the live session for id
func (s *SessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.m[id]
	s.mu.RUnlock()

	if !ok || sess.Expired(s.now().UTC()) {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

// Delete removes id; unknown ids are ignored
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Close stops the janitor. Safe to call more than once.
func (s *SessionStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

func (s *SessionStore) janitor(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				logger.L().Debug("evicted expired sessions", "count", n)
			}
		case <-s.stop:
			return
		}
	}
}

func (s *SessionStore) sweep() int {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.m {
		if sess.Expired(now) {
			delete(s.m, id)
			n++
		}
	}
	return n
}
