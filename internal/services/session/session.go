package session

import (
	"time"

	"blog-pulse/internal/services/auth"
)

// Session is the server-side state behind a session cookie
type Session struct {
	ID        string    `json:"id"`
	User      auth.User `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsAdmin reports whether the session user is an admin
func (s *Session) IsAdmin() bool {
	return s.User.IsAdmin()
}
