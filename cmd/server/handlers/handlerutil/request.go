package handlerutil

import (
	"blog-pulse/cmd/server/ctxkeys"
	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CurrentSession returns the session attached by the session middleware
func CurrentSession(c *fiber.Ctx) (*session.Session, bool) {
	s, ok := c.Locals(ctxkeys.SessionKey).(*session.Session)
	return s, ok && s != nil
}

// RawSessionID returns the session cookie value as sent, resolved or not
func RawSessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(ctxkeys.SessionIDKey).(string)
	return id
}

// GetUserID extracts the session user's ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	s, ok := CurrentSession(c)
	if !ok {
		logger.L().Error("session not found in context", "handler", "getUserID", "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}
	return s.User.ID, nil
}

// ParseAndValidateBody parses request body and validates it
func ParseAndValidateBody(c *fiber.Ctx, req any, validator *validator.Validate, handlerName string) error {
	userIDHex := ""
	if s, ok := CurrentSession(c); ok {
		userIDHex = s.User.ID.Hex()
	}

	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := validator.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ExtractObjectID reads the :id route parameter. A missing or malformed id
// cannot name an existing document, so both yield 404 with notFoundMsg.
func ExtractObjectID(c *fiber.Ctx, handlerName, notFoundMsg string) (bson.ObjectID, error) {
	raw := c.Params("id")
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		logger.L().Warn("invalid id parameter", "handler", handlerName, "id", raw, "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.NotFound(notFoundMsg))
	}
	return id, nil
}
