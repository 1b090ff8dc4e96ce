package httperr

import (
	"errors"

	"blog-pulse/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried in the envelope
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInternal     = "internal"
)

// E represents an HTTP error with status code, machine code and message
type E struct {
	Status  int    `json:"-" example:"400"`
	Code    string `json:"code" example:"bad_request"`
	Message string `json:"message" example:"Bad Request"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// JSON returns the error as JSON response
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return Fail(E{
		Status:  fiber.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: "Invalid input: " + err.Error(),
	})
}

// NotFound returns a 404 with message
func NotFound(message string) E {
	return E{Status: fiber.StatusNotFound, Code: CodeNotFound, Message: message}
}

// Conflict returns a 409 with message
func Conflict(message string) E {
	return E{Status: fiber.StatusConflict, Code: CodeConflict, Message: message}
}

// Forbidden returns a 403 with message
func Forbidden(message string) E {
	return E{Status: fiber.StatusForbidden, Code: CodeForbidden, Message: message}
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: fiber.StatusInternalServerError, Code: CodeInternal, Message: message}
}

// Pre-defined HTTP errors
var (
	ErrBadRequest   = E{Status: fiber.StatusBadRequest, Code: CodeBadRequest, Message: "Bad Request"}
	ErrUnauthorized = E{Status: fiber.StatusUnauthorized, Code: CodeUnauthorized, Message: "Authentication required"}
	ErrInternal     = InternalError("Internal Server Error")
)

// codeFor maps a bare status from fiber.Error to an envelope code
func codeFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return CodeBadRequest
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusConflict:
		return CodeConflict
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeBadRequest
}

// Handler is the global error handler for Fiber
func Handler(c *fiber.Ctx, err error) error {
	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		return c.Status(fiberError.Code).JSON(E{
			Status:  fiberError.Code,
			Code:    codeFor(fiberError.Code),
			Message: fiberError.Message,
		})
	}

	logger.L().Error("unhandled error", "path", c.Path(), "error", err)
	return ErrInternal.JSON(c)
}
