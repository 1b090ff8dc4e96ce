package auth

import "errors"

// ErrEmailTaken is returned when another account already uses the email.
var ErrEmailTaken = errors.New("user already exists")

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrNotAccountOwner is returned when ownership checks are on and the caller
// tries to modify somebody else's account.
var ErrNotAccountOwner = errors.New("cannot modify another user's account")

// ErrBlankName is returned when the name is empty once markup is removed.
var ErrBlankName = errors.New("name is empty after removing markup")

// ErrCreateUser is returned when persisting a new user fails.
var ErrCreateUser = errors.New("failed to create user")

// ErrUpdateUser is returned when persisting a user update fails.
var ErrUpdateUser = errors.New("failed to update user")
