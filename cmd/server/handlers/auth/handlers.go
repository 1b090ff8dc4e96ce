package auth

import (
	"context"
	"errors"
	"time"

	"blog-pulse/cmd/server/handlers/handlerutil"
	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/auth"
	"blog-pulse/internal/services/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthService defines the interface for auth service
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.User, error)
	Authenticate(ctx context.Context, req auth.SignInRequest) (*auth.User, error)
	UpdateUser(ctx context.Context, actorID, targetID bson.ObjectID, req auth.UpdateUserRequest) (*auth.User, error)
}

// SessionManager defines the session operations the auth handlers need
type SessionManager interface {
	Create(ctx context.Context, user *auth.User) (*session.Session, error)
	Destroy(ctx context.Context, id string) (*session.Session, error)
	Refresh(ctx context.Context, s *session.Session, user *auth.User) error
	TTL() time.Duration
}

// CookieConfig describes the session cookie
type CookieConfig = handlerutil.SessionCookie

// LoginResponse is returned by a successful login or session check
type LoginResponse struct {
	Success bool       `json:"success" example:"true"`
	IsAdmin bool       `json:"isAdmin" example:"false"`
	User    *auth.User `json:"user"`
}

// NoSessionResponse is returned by the session check when nobody is logged in
type NoSessionResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"No user session"`
}

// UserResponse pairs a message with the affected user
type UserResponse struct {
	Message string     `json:"message" example:"User updated"`
	User    *auth.User `json:"user"`
}

// Handlers contains the account and session HTTP handlers
type Handlers struct {
	authService AuthService
	sessions    SessionManager
	cookie      CookieConfig
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, sessions SessionManager, cookie CookieConfig, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		sessions:    sessions,
		cookie:      cookie,
		validator:   validator,
	}
}

// SignUp handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpRequest true "Sign up request"
// @Success 200 {object} UserResponse
// @Failure 400 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /signup [post]
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req auth.SignUpRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SignUp"); err != nil {
		return err
	}

	user, err := h.authService.SignUp(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			logger.L().Info("signup with existing email", "handler", "SignUp")
			return httperr.Fail(httperr.Conflict("User already exists"))
		case errors.Is(err, auth.ErrBlankName):
			return httperr.InvalidInput(err)
		}
		logger.L().Error("signup service failed", "handler", "SignUp", "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	return c.JSON(UserResponse{Message: "New user created", User: user})
}

// Login authenticates a user and opens a session
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignInRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /login [post]
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.SignInRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Login"); err != nil {
		return err
	}

	user, err := h.authService.Authenticate(c.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return httperr.Fail(httperr.E{
				Status:  fiber.StatusUnauthorized,
				Code:    httperr.CodeUnauthorized,
				Message: "Invalid username or password",
			})
		}
		logger.L().Error("login service failed", "handler", "Login", "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	// re-login replaces whatever session the browser already had
	if old := handlerutil.RawSessionID(c); old != "" {
		if _, err := h.sessions.Destroy(c.Context(), old); err != nil {
			logger.L().Warn("failed to destroy previous session", "handler", "Login", "error", err)
		}
	}

	s, err := h.sessions.Create(c.Context(), user)
	if err != nil {
		logger.L().Error("failed to create session", "handler", "Login", "userID", user.ID.Hex(), "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	h.cookie.Set(c, s.ID, h.sessions.TTL())

	return c.JSON(LoginResponse{Success: true, IsAdmin: user.IsAdmin(), User: &s.User})
}

// WhoAmI reports the logged-in user, if any
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} LoginResponse
// @Router /login [get]
func (h *Handlers) WhoAmI(c *fiber.Ctx) error {
	s, ok := handlerutil.CurrentSession(c)
	if !ok {
		return c.JSON(NoSessionResponse{Success: false, Message: "No user session"})
	}
	return c.JSON(LoginResponse{Success: true, IsAdmin: s.IsAdmin(), User: &s.User})
}

// Logout destroys the current session and clears the cookie
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 500 {object} httperr.E
// @Router /logout [post]
func (h *Handlers) Logout(c *fiber.Ctx) error {
	s, err := h.sessions.Destroy(c.Context(), handlerutil.RawSessionID(c))
	if err != nil {
		logger.L().Error("failed to destroy session", "handler", "Logout", "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	h.cookie.Clear(c)

	var user *auth.User
	if s != nil {
		user = &s.User
	}
	return c.JSON(UserResponse{Message: "Logged out successfully", User: user})
}

// UpdateUser overwrites fields of a user account
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body auth.UpdateUserRequest true "Fields to overwrite"
// @Success 200 {object} UserResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Router /users/{id} [put]
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	actorID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	targetID, err := handlerutil.ExtractObjectID(c, "UpdateUser", "User not found")
	if err != nil {
		return err
	}

	var req auth.UpdateUserRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateUser"); err != nil {
		return err
	}

	user, err := h.authService.UpdateUser(c.Context(), actorID, targetID, req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return httperr.Fail(httperr.NotFound("User not found"))
		case errors.Is(err, auth.ErrEmailTaken):
			return httperr.Fail(httperr.Conflict("User already exists"))
		case errors.Is(err, auth.ErrNotAccountOwner):
			return httperr.Fail(httperr.Forbidden(err.Error()))
		case errors.Is(err, auth.ErrBlankName):
			return httperr.InvalidInput(err)
		}
		logger.L().Error("update user failed", "handler", "UpdateUser", "userID", actorID.Hex(), "targetID", targetID.Hex(), "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	if s, ok := handlerutil.CurrentSession(c); ok && s.User.ID == user.ID {
		if err := h.sessions.Refresh(c.Context(), s, user); err != nil {
			logger.L().Warn("failed to refresh session snapshot", "handler", "UpdateUser", "userID", actorID.Hex(), "error", err)
		}
	}

	return c.JSON(UserResponse{Message: "User updated", User: user})
}
