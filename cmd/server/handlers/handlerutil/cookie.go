package handlerutil

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie describes the session cookie
type SessionCookie struct {
	Name     string
	Secure   bool
	SameSite string
}

// Set writes the cookie carrying value, valid for ttl. A later Set or Clear
// on the same response replaces it.
func (sc SessionCookie) Set(c *fiber.Ctx, value string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   sc.Secure,
		HTTPOnly: true,
		SameSite: SameSite(sc.SameSite),
	})
}

// Clear tells the browser to drop the cookie
func (sc SessionCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   sc.Secure,
		HTTPOnly: true,
		SameSite: SameSite(sc.SameSite),
	})
}

// SameSite maps a config value onto Fiber's SameSite modes, Lax by default
func SameSite(v string) string {
	switch strings.ToLower(v) {
	case "strict":
		return fiber.CookieSameSiteStrictMode
	case "none":
		return fiber.CookieSameSiteNoneMode
	default:
		return fiber.CookieSameSiteLaxMode
	}
}
