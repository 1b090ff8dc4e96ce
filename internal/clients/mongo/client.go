package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"blog-pulse/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrNotInitialized is returned by Shutdown and Ping before a successful Init.
var ErrNotInitialized = errors.New("mongo client not initialized")

// ErrShutdown is returned by Shutdown once the client has already been closed.
var ErrShutdown = errors.New("mongo client already shut down")

// connectTimeout bounds both the dial and the initial ping.
const connectTimeout = 10 * time.Second

var drv driver = mongoDriver{}

var (
	client *mongo.Client
	db     *mongo.Database
	closed bool
	mu     sync.Mutex
)

// Init connects to MongoDB and pings the primary. The first successful call
// wins; after a failure the next call retries.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()

	if client != nil && db != nil {
		return client, db, nil
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(connectTimeout).
		SetAppName("blog-pulse")

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cli, err := drv.Connect(ctx, opts)
	if err != nil {
		log.Error("failed to connect to mongo", "error", err)
		return nil, nil, err
	}

	if err := drv.Ping(ctx, cli); err != nil {
		log.Error("failed to ping mongo", "error", err)
		_ = drv.Disconnect(ctx, cli)
		return nil, nil, err
	}

	client = cli
	db = cli.Database(cfg.MongoDBName)
	closed = false

	log.Info("successfully connected to mongo", "db", cfg.MongoDBName)

	return client, db, nil
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Ping checks that the primary is reachable.
func Ping(ctx context.Context) error {
	mu.Lock()
	cli := client
	mu.Unlock()

	if cli == nil {
		return ErrNotInitialized
	}
	return drv.Ping(ctx, cli)
}

// Shutdown disconnects the client. Calling it again returns ErrShutdown.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if client == nil {
		if closed {
			return ErrShutdown
		}
		closed = true
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	err := drv.Disconnect(ctx, client)

	client = nil
	db = nil
	closed = true

	return err
}
