package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the privilege level of a user
type Role string

// Known roles
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	Email        string        `bson:"email" json:"email" example:"ada@example.com"`
	PasswordHash string        `bson:"password" json:"-"`
	Age          int           `bson:"age" json:"age" example:"36"`
	Name         string        `bson:"name" json:"name" example:"Ada Lovelace"`
	Role         Role          `bson:"role" json:"role" example:"user"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Snapshot returns a copy of u without credentials, suitable for sessions
func (u *User) Snapshot() User {
	cp := *u
	cp.PasswordHash = ""
	return cp
}

// UserPatch holds the fields an update may overwrite. Nil means untouched.
type UserPatch struct {
	Email        *string
	PasswordHash *string
	Age          *int
	Name         *string
}

// Empty reports whether the patch changes nothing
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.PasswordHash == nil && p.Age == nil && p.Name == nil
}
