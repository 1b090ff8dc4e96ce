package middlewares

import (
	"context"
	"errors"
	"time"

	"blog-pulse/cmd/server/ctxkeys"
	"blog-pulse/cmd/server/handlers/handlerutil"
	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/session"

	"github.com/gofiber/fiber/v2"
)

// SessionResolver turns a cookie value into a live session
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (*session.Session, error)
}

// LoadSession attaches the session named by the cookie, if any, to the
// request. It never rejects a request; missing, expired and unreadable
// sessions all leave the request anonymous.
func LoadSession(resolver SessionResolver, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(cookieName)
		if id == "" {
			return c.Next()
		}
		c.Locals(ctxkeys.SessionIDKey, id)

		s, err := resolver.Resolve(c.Context(), id)
		switch {
		case err == nil:
			c.Locals(ctxkeys.SessionKey, s)
		case errors.Is(err, session.ErrNotFound):
		default:
			logger.L().Error("failed to resolve session", "path", c.Path(), "error", err)
		}

		return c.Next()
	}
}

// RequireSession rejects requests that carry no live session with 401
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s, ok := c.Locals(ctxkeys.SessionKey).(*session.Session); !ok || s == nil {
			return httperr.Fail(httperr.ErrUnauthorized)
		}
		return c.Next()
	}
}

// SlideSessionCookie re-issues the session cookie with a full ttl on every
// request that resolved a live session, so the browser keeps the cookie as
// long as the server keeps extending the session. It must run after
// LoadSession. Handlers that write the cookie themselves replace it.
func SlideSessionCookie(cookie handlerutil.SessionCookie, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s, ok := handlerutil.CurrentSession(c); ok {
			cookie.Set(c, s.ID, ttl)
		}
		return c.Next()
	}
}
