package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrDuplicate is returned by a repository when the unique email index rejects a write
var ErrDuplicate = errors.New("user with this email already exists")

// UsersRepo defines the interface for user repository operations
type UsersRepo interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*User, error)
	Update(ctx context.Context, id bson.ObjectID, patch UserPatch) (*User, error)
}
