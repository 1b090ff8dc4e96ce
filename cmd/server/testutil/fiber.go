package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/internal/config"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/auth"
	"blog-pulse/internal/services/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestCookieName is the session cookie name used by handler tests
const TestCookieName = "sessionID"

// CreateTestApp creates a basic Fiber app for testing with common configuration
func CreateTestApp(t *testing.T) *fiber.App {
	cfg := config.Config{LogLevel: "debug", LogFormat: "text"}
	_, err := logger.Init(cfg)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
	})

	return app
}

// CreateTestValidator creates the request validator used by the handlers
func CreateTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	return validator.New()
}

// Sessions is an in-memory session resolver for handler tests
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*session.Session
}

// NewSessions creates an empty resolver
func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*session.Session)}
}

// Add opens a session for user and returns its id
func (s *Sessions) Add(user auth.User) string {
	now := time.Now().UTC()
	sess := &session.Session{
		ID:        uuid.NewString(),
		User:      user.Snapshot(),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sess.ID] = sess
	return sess.ID
}

// Resolve implements middlewares.SessionResolver
func (s *Sessions) Resolve(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

// CreateJSONRequest creates an HTTP request with JSON body
func CreateJSONRequest(method, url string, body any) *http.Request {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateSessionRequest creates a JSON request carrying the session cookie
func CreateSessionRequest(method, url string, body any, sessionID string) *http.Request {
	req := CreateJSONRequest(method, url, body)
	req.AddCookie(&http.Cookie{Name: TestCookieName, Value: sessionID})
	return req
}

// DecodeJSON reads a response body into a generic map
func DecodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return got
}
