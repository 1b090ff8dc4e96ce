package handlerutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSite(t *testing.T) {
	assert.Equal(t, fiber.CookieSameSiteStrictMode, SameSite("Strict"))
	assert.Equal(t, fiber.CookieSameSiteNoneMode, SameSite("none"))
	assert.Equal(t, fiber.CookieSameSiteLaxMode, SameSite("Lax"))
	assert.Equal(t, fiber.CookieSameSiteLaxMode, SameSite(""))
}

func TestSessionCookie(t *testing.T) {
	sc := SessionCookie{Name: "sessionID", Secure: true, SameSite: "Strict"}

	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		sc.Set(c, "abc", time.Hour)
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/replace", func(c *fiber.Ctx) error {
		sc.Set(c, "abc", time.Hour)
		sc.Clear(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, "/", cookies[0].Path)

	resp, err = app.Test(httptest.NewRequest("GET", "/replace", nil))
	require.NoError(t, err)
	cookies = resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0 || (!cookies[0].Expires.IsZero() && cookies[0].Expires.Before(time.Now())), "cookie must be expired")
}
