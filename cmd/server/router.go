package main

import (
	"blog-pulse/cmd/server/handlers"
	authHandlers "blog-pulse/cmd/server/handlers/auth"
	blogHandlers "blog-pulse/cmd/server/handlers/blog"
	"blog-pulse/cmd/server/handlers/handlerutil"
	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/cmd/server/middlewares"
	"blog-pulse/internal/config"
	"blog-pulse/internal/logger"
	blogServices "blog-pulse/internal/services/blog"
	"blog-pulse/internal/services/session"

	_ "blog-pulse/docs" // Load swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// StreamHub is the event hub as seen by the router
type StreamHub interface {
	Subscribe(connULID ulid.ULID, postID bson.ObjectID) (*blogServices.Subscriber, func())
	Stats() (subscribers int, dropped uint64)
}

// routerDeps carries the wired services the routes are built on
type routerDeps struct {
	Auth     authHandlers.AuthService
	Blog     blogHandlers.Service
	Sessions *session.Manager
	Hub      StreamHub
	Health   handlers.Pinger
}

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(cfg config.Config, deps routerDeps) *fiber.App {
	v := validator.New()

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowHeaders:     "Content-Type",
		AllowCredentials: cfg.CORSAllowOrigins != "*",
	}))

	middlewares.AttachMetrics(app, middlewares.MetricsOptions{
		RouteMetrics: cfg.RouteMetricsEnabled,
		Collectors:   middlewares.StreamCollectors(deps.Hub.Stats),
	})

	// Health check endpoint, outside the API group to avoid logging
	health := deps.Health
	if health == nil {
		app.Get("/healthz", handlers.Healthz)
	} else {
		app.Get("/healthz", handlers.HealthzWith(health))
	}

	app.Get("/docs/*", swagger.HandlerDefault)

	cookie := handlerutil.SessionCookie{
		Name:     cfg.SessionCookieName,
		Secure:   cfg.SessionCookieSecure,
		SameSite: cfg.SessionCookieSameSite,
	}
	loadSession := middlewares.LoadSession(deps.Sessions, cfg.SessionCookieName)
	requireSession := middlewares.RequireSession()

	apiMiddlewares := []fiber.Handler{}
	if cfg.RequestLoggingEnabled {
		apiMiddlewares = append(apiMiddlewares, fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		logger.L().Info("request logging disabled")
	}
	apiMiddlewares = append(apiMiddlewares, loadSession)
	if cfg.SessionSliding {
		apiMiddlewares = append(apiMiddlewares, middlewares.SlideSessionCookie(cookie, deps.Sessions.TTL()))
	}
	api := app.Group("/api", apiMiddlewares...)

	authH := authHandlers.NewHandlers(deps.Auth, deps.Sessions, cookie, v)

	api.Post("/signup", authH.SignUp)
	api.Post("/login", authH.Login)
	api.Get("/login", authH.WhoAmI)
	api.Post("/logout", authH.Logout)
	api.Put("/users/:id", requireSession, authH.UpdateUser)

	blogH := blogHandlers.NewHandlers(deps.Blog, v)

	api.Post("/create-blog", requireSession, blogH.Create)
	api.Get("/blog/:id", blogH.Get)
	api.Put("/blog/:id", requireSession, blogH.Update)
	api.Delete("/blog/:id", requireSession, blogH.Delete)
	api.Post("/blog/:id/comment", requireSession, blogH.Comment)

	// WebSocket routes
	wsHandlers := blogHandlers.NewWebSocketHandlers(deps.Hub, cfg.WSMaxSessionSec)
	app.Use("/ws", loadSession, blogHandlers.LogWSConnections())
	app.Get("/ws/blog/stream", wsHandlers.WSUpgrade, websocket.New(wsHandlers.WSPostStream))

	return app
}
