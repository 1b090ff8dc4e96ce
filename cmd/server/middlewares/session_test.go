package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"blog-pulse/cmd/server/ctxkeys"
	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/internal/services/auth"
	"blog-pulse/internal/services/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type fakeResolver struct {
	sessions map[string]*session.Session
	err      error
	calls    int
}

func (f *fakeResolver) Resolve(_ context.Context, id string) (*session.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func newGuardedApp(resolver SessionResolver) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	app.Use(LoadSession(resolver, "sessionID"))
	app.Get("/public", func(c *fiber.Ctx) error {
		if s, ok := c.Locals(ctxkeys.SessionKey).(*session.Session); ok {
			return c.SendString("hello " + s.User.Name)
		}
		return c.SendString("hello anonymous")
	})
	app.Get("/private", RequireSession(), func(c *fiber.Ctx) error {
		return c.SendString("secret")
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, cookie string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", "sessionID="+cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestSessionGuard(t *testing.T) {
	resolver := &fakeResolver{sessions: map[string]*session.Session{
		"good": {ID: "good", User: auth.User{ID: bson.NewObjectID(), Name: "Ada"}},
	}}
	app := newGuardedApp(resolver)

	t.Run("live session passes", func(t *testing.T) {
		status, body := get(t, app, "/private", "good")
		assert.Equal(t, 200, status)
		assert.Equal(t, "secret", body)
	})

	t.Run("no cookie is rejected with JSON envelope", func(t *testing.T) {
		status, body := get(t, app, "/private", "")
		assert.Equal(t, 401, status)

		var e map[string]string
		require.NoError(t, json.Unmarshal([]byte(body), &e))
		assert.Equal(t, "unauthorized", e["code"])
		assert.Equal(t, "Authentication required", e["message"])
	})

	t.Run("unknown cookie is rejected", func(t *testing.T) {
		status, _ := get(t, app, "/private", "stale")
		assert.Equal(t, 401, status)
	})

	t.Run("public route sees the session", func(t *testing.T) {
		_, body := get(t, app, "/public", "good")
		assert.Equal(t, "hello Ada", body)

		_, body = get(t, app, "/public", "stale")
		assert.Equal(t, "hello anonymous", body)
	})
}

func TestLoadSession_SkipsStoreWithoutCookie(t *testing.T) {
	resolver := &fakeResolver{}
	app := newGuardedApp(resolver)

	status, _ := get(t, app, "/public", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, 0, resolver.calls)
}

func TestLoadSession_StoreErrorIsAnonymous(t *testing.T) {
	app := newGuardedApp(&fakeResolver{err: errors.New("redis down")})

	status, body := get(t, app, "/public", "anything")
	assert.Equal(t, 200, status)
	assert.Equal(t, "hello anonymous", body)

	status, _ = get(t, app, "/private", "anything")
	assert.Equal(t, 401, status)
}
