package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session id is unknown or expired
var ErrNotFound = errors.New("session not found")

// Store persists sessions keyed by id. Implementations must honour ExpiresAt:
// an expired session is never returned from Get.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Delete is idempotent; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}
