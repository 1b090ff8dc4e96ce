package handlers

import (
	"context"
	"time"

	"blog-pulse/internal/clients/mongo"
	"blog-pulse/internal/logger"

	"github.com/gofiber/fiber/v2"
)

const HealthzTimeout = 5 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger func(ctx context.Context) error

// Healthz returns the health of the server.
// @Summary Health check
// @Description Check if the server and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /healthz [get]
func Healthz(c *fiber.Ctx) error {
	return HealthzWith(mongo.Ping)(c)
}

// HealthzWith builds a health handler over an arbitrary ping
func HealthzWith(ping Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			logger.L().Warn("health check failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status": "down",
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"status": "ok",
		})
	}
}
