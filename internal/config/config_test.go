package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

// baseValidConfig returns a fully-valid configuration object that callers
// can tweak inside table tests.
func baseValidConfig() Config {
	return Config{
		AppPort:               6000,
		BcryptCost:            12,
		LogLevel:              "info",
		LogFormat:             "json",
		MongoURI:              "mongodb://localhost:27017",
		MongoDBName:           "test",
		SessionStore:          SessionStoreMemory,
		SessionTTLMinutes:     60,
		SessionCookieName:     "sessionID",
		SessionCookieSameSite: "Lax",
		RedisAddr:             "localhost:6379",
		RedisKeyPrefix:        "session:",
		WSMaxSessionSec:       900,
		WSOutboxBuffer:        256,
	}
}

// clearConfigEnvVars removes every environment variable that the Config loader
// consumes so each test starts with a clean slate.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		"APP_PORT",
		"BCRYPT_COST",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"MONGO_URI",
		"MONGO_DB_NAME",
		"SESSION_STORE",
		"SESSION_TTL_MINUTES",
		"SESSION_SLIDING",
		"SESSION_COOKIE_NAME",
		"SESSION_COOKIE_SECURE",
		"SESSION_COOKIE_SAMESITE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"REDIS_KEY_PREFIX",
		"ENFORCE_OWNERSHIP",
		"CORS_ALLOW_ORIGINS",
		"WS_MAX_SESSION_SEC",
		"WS_OUTBOX_BUFFER",
		"ROUTE_METRICS_ENABLED",
		"REQUEST_LOGGING_ENABLED",
		"PYROSCOPE_SERVER_ADDRESS",
	} {
		if err := os.Unsetenv(k); err != nil {
			t.Logf("warning: failed to unset %s: %v", k, err)
		}
	}
}

func TestConfigLoadDefaults(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.AppPort)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "mongodb://127.0.0.1:27017", cfg.MongoURI)
	assert.Equal(t, "blog", cfg.MongoDBName)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 60, cfg.SessionTTLMinutes)
	assert.False(t, cfg.SessionSliding)
	assert.Equal(t, "sessionID", cfg.SessionCookieName)
	assert.False(t, cfg.SessionCookieSecure)
	assert.Equal(t, "Lax", cfg.SessionCookieSameSite)
	assert.Equal(t, "session:", cfg.RedisKeyPrefix)
	assert.False(t, cfg.EnforceOwnership)
	assert.Equal(t, "*", cfg.CORSAllowOrigins)
	assert.Equal(t, 900, cfg.WSMaxSessionSec)
	assert.Equal(t, 256, cfg.WSOutboxBuffer)
	assert.True(t, cfg.RouteMetricsEnabled)
	assert.True(t, cfg.RequestLoggingEnabled)
	assert.Empty(t, cfg.PyroscopeServerAddr)
}

func TestConfigLoadWithOverride(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	t.Setenv("APP_PORT", "9999")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ENFORCE_OWNERSHIP", "true")
	t.Setenv("SESSION_SLIDING", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.AppPort)
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.True(t, cfg.EnforceOwnership)
	assert.True(t, cfg.SessionSliding)
	assert.Equal(t, "blog", cfg.MongoDBName)
}

func TestConfigLoadRejectsInvalidEnv(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	t.Setenv("SESSION_STORE", "memcached")

	_, err := Load()
	require.ErrorIs(t, err, ErrSessionStoreUnsupported)
}

func TestConfigCaching(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	cfg1, err := Load()
	require.NoError(t, err)

	// second call should hit the cache even after env changes
	t.Setenv("APP_PORT", "7777")
	cfg2, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg1, cfg2)

	ResetCache()
	cfg3, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg3.AppPort)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"port zero", func(c *Config) { c.AppPort = 0 }, ErrAppPortRange},
		{"port too large", func(c *Config) { c.AppPort = 70000 }, ErrAppPortRange},
		{"bcrypt too low", func(c *Config) { c.BcryptCost = 3 }, ErrBcryptCostRange},
		{"bcrypt too high", func(c *Config) { c.BcryptCost = 17 }, ErrBcryptCostRange},
		{"empty log level", func(c *Config) { c.LogLevel = "" }, ErrLogLevelEmpty},
		{"empty log format", func(c *Config) { c.LogFormat = "" }, ErrLogFormatEmpty},
		{"empty mongo uri", func(c *Config) { c.MongoURI = "" }, ErrMongoURIEmpty},
		{"empty mongo db", func(c *Config) { c.MongoDBName = "" }, ErrMongoDBNameEmpty},
		{"unknown store", func(c *Config) { c.SessionStore = "file" }, ErrSessionStoreUnsupported},
		{"redis without addr", func(c *Config) {
			c.SessionStore = SessionStoreRedis
			c.RedisAddr = ""
		}, ErrRedisAddrEmpty},
		{"memory store ignores redis addr", func(c *Config) { c.RedisAddr = "" }, nil},
		{"zero ttl", func(c *Config) { c.SessionTTLMinutes = 0 }, ErrSessionTTL},
		{"empty cookie name", func(c *Config) { c.SessionCookieName = "" }, ErrSessionCookieNameEmpty},
		{"bad samesite", func(c *Config) { c.SessionCookieSameSite = "Loose" }, ErrSessionCookieSameSite},
		{"samesite strict lowercase", func(c *Config) { c.SessionCookieSameSite = "strict" }, nil},
		{"samesite none insecure", func(c *Config) { c.SessionCookieSameSite = "None" }, ErrSameSiteNoneInsecure},
		{"samesite none secure", func(c *Config) {
			c.SessionCookieSameSite = "None"
			c.SessionCookieSecure = true
		}, nil},
		{"negative redis db", func(c *Config) { c.RedisDB = -1 }, ErrRedisDBNegative},
		{"zero ws session", func(c *Config) { c.WSMaxSessionSec = 0 }, ErrWSMaxSessionSec},
		{"zero ws outbox", func(c *Config) { c.WSOutboxBuffer = 0 }, ErrWSOutboxBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseValidConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
