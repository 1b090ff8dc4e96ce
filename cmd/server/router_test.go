package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"blog-pulse/cmd/server/testutil"
	"blog-pulse/internal/clients/memstore"
	"blog-pulse/internal/config"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/auth"
	"blog-pulse/internal/services/blog"
	"blog-pulse/internal/services/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const routerTestPassword = "secret"

// stubAuth accepts a single fixed user
type stubAuth struct {
	user *auth.User
}

func (s *stubAuth) SignUp(_ context.Context, _ auth.SignUpRequest) (*auth.User, error) {
	return s.user, nil
}

func (s *stubAuth) Authenticate(_ context.Context, req auth.SignInRequest) (*auth.User, error) {
	if req.Email != s.user.Email || req.Password != routerTestPassword {
		return nil, auth.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubAuth) UpdateUser(_ context.Context, _, targetID bson.ObjectID, _ auth.UpdateUserRequest) (*auth.User, error) {
	if targetID != s.user.ID {
		return nil, auth.ErrUserNotFound
	}
	return s.user, nil
}

// stubBlog knows no posts but accepts new ones
type stubBlog struct{}

func (stubBlog) Create(_ context.Context, authorID bson.ObjectID, req blog.CreatePostRequest) (*blog.BlogPost, error) {
	return &blog.BlogPost{ID: bson.NewObjectID(), Title: req.Title, Content: req.Content, Author: authorID, Comments: []blog.Comment{}}, nil
}

func (stubBlog) Get(context.Context, bson.ObjectID) (*blog.PostView, error) {
	return nil, blog.ErrPostNotFound
}

func (stubBlog) Update(context.Context, bson.ObjectID, bson.ObjectID, blog.UpdatePostRequest) (*blog.BlogPost, error) {
	return nil, blog.ErrPostNotFound
}

func (stubBlog) Delete(context.Context, bson.ObjectID, bson.ObjectID) error {
	return blog.ErrPostNotFound
}

func (stubBlog) AddComment(context.Context, bson.ObjectID, bson.ObjectID, blog.CommentRequest) (*blog.Comment, error) {
	return nil, blog.ErrPostNotFound
}

func testConfig() config.Config {
	return config.Config{
		AppPort:               6000,
		BcryptCost:            4,
		LogLevel:              "debug",
		LogFormat:             "text",
		SessionStore:          config.SessionStoreMemory,
		SessionTTLMinutes:     60,
		SessionCookieName:     testutil.TestCookieName,
		SessionCookieSameSite: "Lax",
		CORSAllowOrigins:      "*",
		WSMaxSessionSec:       900,
		WSOutboxBuffer:        16,
		RouteMetricsEnabled:   true,
		RequestLoggingEnabled: false,
	}
}

func setupTestRouter(t *testing.T) (*fiber.App, *auth.User) {
	t.Helper()
	return setupTestRouterWith(t, testConfig())
}

func setupTestRouterWith(t *testing.T, cfg config.Config) (*fiber.App, *auth.User) {
	t.Helper()

	_, err := logger.Init(cfg)
	require.NoError(t, err)

	store := memstore.NewSessionStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	user := &auth.User{ID: bson.NewObjectID(), Email: "ada@example.com", Name: "Ada", Role: auth.RoleUser}

	app := setupRouter(cfg, routerDeps{
		Auth:     &stubAuth{user: user},
		Blog:     stubBlog{},
		Sessions: session.NewManager(store, time.Hour, cfg.SessionSliding, logger.L()),
		Hub:      blog.NewHub(cfg.WSOutboxBuffer),
		Health:   func(context.Context) error { return nil },
	})
	return app, user
}

func loginCookie(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	req := testutil.CreateJSONRequest("POST", "/api/login", map[string]string{"email": email, "password": routerTestPassword})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == testutil.TestCookieName {
			return c.Value
		}
	}
	t.Fatal("login did not set a session cookie")
	return ""
}

func TestRequestLoggingConfig(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{
			name:     "request logging disabled",
			envValue: "false",
			expected: false,
		},
		{
			name:     "request logging enabled",
			envValue: "true",
			expected: true,
		},
		{
			name:     "default value (no env var)",
			envValue: "",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				_ = os.Unsetenv("REQUEST_LOGGING_ENABLED")
				config.ResetCache()
			}()

			if tt.envValue != "" {
				err := os.Setenv("REQUEST_LOGGING_ENABLED", tt.envValue)
				require.NoError(t, err)
			}

			config.ResetCache()

			cfg, err := config.Load()
			require.NoError(t, err)

			assert.Equal(t, tt.expected, cfg.RequestLoggingEnabled,
				"RequestLoggingEnabled should be %v when REQUEST_LOGGING_ENABLED=%s",
				tt.expected, tt.envValue)
		})
	}
}

func TestGuardedRoutesRejectAnonymous(t *testing.T) {
	app, user := setupTestRouter(t)
	postID := bson.NewObjectID().Hex()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"POST", "/api/create-blog", 401},
		{"PUT", "/api/blog/" + postID, 401},
		{"DELETE", "/api/blog/" + postID, 401},
		{"POST", "/api/blog/" + postID + "/comment", 401},
		{"PUT", "/api/users/" + user.ID.Hex(), 401},
		{"GET", "/api/blog/" + postID, 404},
		{"GET", "/api/login", 200},
		{"POST", "/api/logout", 200},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(testutil.CreateJSONRequest(tt.method, tt.path, map[string]string{"title": "t", "content": "c", "text": "x"}), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			if tt.want == 401 {
				got := testutil.DecodeJSON(t, resp)
				assert.Equal(t, "unauthorized", got["code"])
				assert.Empty(t, resp.Header.Get("Location"), "guard must not redirect")
			}
		})
	}
}

func TestSessionLifecycleThroughRouter(t *testing.T) {
	app, user := setupTestRouter(t)
	sid := loginCookie(t, app, user.Email)

	create := func() int {
		req := testutil.CreateSessionRequest("POST", "/api/create-blog", map[string]string{"title": "Hello", "content": "World"}, sid)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, 200, create())

	resp, err := app.Test(testutil.CreateSessionRequest("GET", "/api/login", nil, sid), -1)
	require.NoError(t, err)
	got := testutil.DecodeJSON(t, resp)
	assert.Equal(t, true, got["success"])
	assert.NotContains(t, got["user"].(map[string]any), "password")

	resp, err = app.Test(testutil.CreateSessionRequest("POST", "/api/logout", nil, sid), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// replaying the cookie after logout is anonymous
	assert.Equal(t, 401, create())
}

func TestLoginWrongPassword(t *testing.T) {
	app, user := setupTestRouter(t)

	req := testutil.CreateJSONRequest("POST", "/api/login", map[string]string{"email": user.Email, "password": "nope"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	app, _ := setupTestRouter(t)

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", testutil.DecodeJSON(t, resp)["status"])

	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "blog_stream_subscribers")

	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/ws/blog/stream", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	app, _ := setupTestRouter(t)

	req := testutil.CreateJSONRequest("OPTIONS", "/api/login", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func sessionCookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == testutil.TestCookieName {
			return c
		}
	}
	return nil
}

func TestSlidingSessionRenewsCookie(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSliding = true
	app, user := setupTestRouterWith(t, cfg)
	sid := loginCookie(t, app, user.Email)

	resp, err := app.Test(testutil.CreateSessionRequest("GET", "/api/login", nil, sid), -1)
	require.NoError(t, err)
	assert.Equal(t, true, testutil.DecodeJSON(t, resp)["success"])

	renewed := sessionCookieFrom(resp)
	require.NotNil(t, renewed, "sliding session must re-issue the cookie")
	assert.Equal(t, sid, renewed.Value)
	assert.Equal(t, 3600, renewed.MaxAge)
	assert.True(t, renewed.HttpOnly)

	// logout still clears the cookie
	resp, err = app.Test(testutil.CreateSessionRequest("POST", "/api/logout", nil, sid), -1)
	require.NoError(t, err)
	cleared := sessionCookieFrom(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0 || (!cleared.Expires.IsZero() && cleared.Expires.Before(time.Now())), "cookie must be expired")

	// anonymous requests get no cookie
	resp, err = app.Test(testutil.CreateJSONRequest("GET", "/api/login", nil), -1)
	require.NoError(t, err)
	assert.Nil(t, sessionCookieFrom(resp))
}

func TestFixedSessionLeavesCookieAlone(t *testing.T) {
	app, user := setupTestRouter(t)
	sid := loginCookie(t, app, user.Email)

	resp, err := app.Test(testutil.CreateSessionRequest("GET", "/api/login", nil, sid), -1)
	require.NoError(t, err)
	assert.Equal(t, true, testutil.DecodeJSON(t, resp)["success"])
	assert.Nil(t, sessionCookieFrom(resp))
}
