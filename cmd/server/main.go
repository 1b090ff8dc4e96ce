package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-pulse/internal/clients/memstore"
	mongo "blog-pulse/internal/clients/mongo" // mongo client singleton
	"blog-pulse/internal/clients/redis"
	"blog-pulse/internal/config"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/profiling"
	"blog-pulse/internal/services/auth"
	"blog-pulse/internal/services/blog"
	"blog-pulse/internal/services/session"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Create bootstrap logger for early errors
	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	stopProfiling, err := profiling.Start(cfg, logg)
	if err != nil {
		logg.Error("profiler start", "err", err)
		os.Exit(1)
	}

	_, db, err := mongo.Init(ctx, cfg, logg)
	if err != nil {
		logg.Error("mongo init", "err", err)
		os.Exit(1)
	}
	logg.Info("connected to mongo", "db", db.Name())

	usersRepo, err := mongo.NewUsersRepo(ctx, db)
	if err != nil {
		logg.Error("failed to create users repository", "error", err)
		os.Exit(1)
	}
	postsRepo, err := mongo.NewPostsRepo(ctx, db)
	if err != nil {
		logg.Error("failed to create posts repository", "error", err)
		os.Exit(1)
	}

	store, err := openSessionStore(ctx, cfg)
	if err != nil {
		logg.Error("session store init", "store", cfg.SessionStore, "err", err)
		os.Exit(1)
	}
	logg.Info("session store ready", "store", cfg.SessionStore, "ttl_minutes", cfg.SessionTTLMinutes, "sliding", cfg.SessionSliding)

	hub := blog.NewHub(cfg.WSOutboxBuffer)

	app := setupRouter(cfg, routerDeps{
		Auth:     auth.NewService(usersRepo, cfg, logg),
		Blog:     blog.NewService(postsRepo, usersRepo, hub, cfg, logg),
		Sessions: session.NewManager(store, time.Duration(cfg.SessionTTLMinutes)*time.Minute, cfg.SessionSliding, logg),
		Hub:      hub,
		Health:   mongo.Ping,
	})

	logg.Info("starting BlogPulse", "port", cfg.AppPort)
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		if err := store.Close(); err != nil {
			logg.Warn("session store close", "err", err)
		}
		if err := stopProfiling(); err != nil {
			logg.Warn("profiler stop", "err", err)
		}
		return mongo.Shutdown(shutdownCtx)
	})

	// Wait and exit
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}

// openSessionStore builds the backend named by SESSION_STORE
func openSessionStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		return redis.Open(ctx, cfg)
	case config.SessionStoreMemory:
		return memstore.NewSessionStore(memstore.DefaultJanitorInterval), nil
	}
	return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
}
