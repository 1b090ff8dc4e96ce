package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blog-pulse/internal/config"
	"blog-pulse/internal/utils/crypto"
	"blog-pulse/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles account business logic
type Service struct {
	repo   UsersRepo
	config config.Config
	log    *slog.Logger

	// compared against when the email is unknown so both failure paths cost a bcrypt round
	dummyHash string
}

// NewService creates a new auth service
func NewService(repo UsersRepo, cfg config.Config, log *slog.Logger) *Service {
	dummy, _ := crypto.HashPassword("blog-pulse-dummy-password", cfg.BcryptCost)
	return &Service{
		repo:      repo,
		config:    cfg,
		log:       log,
		dummyHash: dummy,
	}
}

// SignUpRequest represents a user registration request
type SignUpRequest struct {
	Email    string `json:"email" form:"email" validate:"required" example:"ada@example.com"`
	Password string `json:"password" form:"password" validate:"required" example:"secret"`
	Age      *int   `json:"age" form:"age" validate:"required,gte=0" example:"36"`
	Name     string `json:"name" form:"name" validate:"required" example:"Ada Lovelace"`
}

// SignInRequest represents a user login request
type SignInRequest struct {
	Email    string `json:"email" form:"email" validate:"required" example:"ada@example.com"`
	Password string `json:"password" form:"password" validate:"required" example:"secret"`
}

// UpdateUserRequest represents a partial account update. Role is not updatable.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" form:"email" validate:"omitempty,min=1" example:"ada@example.org"`
	Password *string `json:"password,omitempty" form:"password" validate:"omitempty,min=1" example:"n3w-secret"`
	Age      *int    `json:"age,omitempty" form:"age" validate:"omitempty,gte=0" example:"37"`
	Name     *string `json:"name,omitempty" form:"name" validate:"omitempty,min=1" example:"Augusta Ada King"`
}

// SignUp registers a new user with the default role
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	name := sanitize.Line(req.Name)
	if name == "" {
		return nil, ErrBlankName
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrEmailTaken
	case err != nil && !errors.Is(err, ErrUserNotFound):
		s.log.Error("failed to look up email", "error", err)
		return nil, ErrCreateUser
	}

	hash, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		return nil, ErrCreateUser
	}

	age := 0
	if req.Age != nil {
		age = *req.Age
	}

	now := time.Now().UTC()
	user := &User{
		ID:           bson.NewObjectID(),
		Email:        req.Email,
		PasswordHash: hash,
		Age:          age,
		Name:         name,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		s.log.Error(ErrCreateUser.Error(), "error", err)
		return nil, ErrCreateUser
	}

	return user, nil
}

// Authenticate checks the credentials and returns the matching user.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, req SignInRequest) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.log.Error("failed to find user by email", "error", err)
			return nil, err
		}
		_ = crypto.CheckPassword(req.Password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	if err := crypto.CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.log.Debug("password check failed", "user_id", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser returns the user with the given id
func (s *Service) GetUser(ctx context.Context, id bson.ObjectID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateUser overwrites the supplied fields of target on behalf of actor
func (s *Service) UpdateUser(ctx context.Context, actorID, targetID bson.ObjectID, req UpdateUserRequest) (*User, error) {
	if s.config.EnforceOwnership && actorID != targetID {
		return nil, ErrNotAccountOwner
	}

	var patch UserPatch
	if req.Name != nil {
		name := sanitize.Line(*req.Name)
		if name == "" {
			return nil, ErrBlankName
		}
		patch.Name = &name
	}
	if req.Email != nil {
		other, err := s.repo.FindByEmail(ctx, *req.Email)
		switch {
		case err == nil && other.ID != targetID:
			return nil, ErrEmailTaken
		case err != nil && !errors.Is(err, ErrUserNotFound):
			s.log.Error("failed to look up email", "error", err, "user_id", targetID.Hex())
			return nil, ErrUpdateUser
		}
		patch.Email = req.Email
	}
	if req.Password != nil {
		hash, err := crypto.HashPassword(*req.Password, s.config.BcryptCost)
		if err != nil {
			s.log.Error("failed to hash password", "error", err, "user_id", targetID.Hex())
			return nil, ErrUpdateUser
		}
		patch.PasswordHash = &hash
	}
	if req.Age != nil {
		patch.Age = req.Age
	}

	if patch.Empty() {
		return s.repo.FindByID(ctx, targetID)
	}

	user, err := s.repo.Update(ctx, targetID, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, ErrDuplicate):
			return nil, ErrEmailTaken
		}
		s.log.Error(ErrUpdateUser.Error(), "error", err, "user_id", targetID.Hex())
		return nil, ErrUpdateUser
	}

	return user, nil
}
