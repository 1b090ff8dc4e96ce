package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Session store backends
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	SessionStore          string `mapstructure:"SESSION_STORE"`
	SessionTTLMinutes     int    `mapstructure:"SESSION_TTL_MINUTES"`
	SessionSliding        bool   `mapstructure:"SESSION_SLIDING"`
	SessionCookieName     string `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieSecure   bool   `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionCookieSameSite string `mapstructure:"SESSION_COOKIE_SAMESITE"`
	RedisAddr             string `mapstructure:"REDIS_ADDR"`
	RedisPassword         string `mapstructure:"REDIS_PASSWORD"`
	RedisDB               int    `mapstructure:"REDIS_DB"`
	RedisKeyPrefix        string `mapstructure:"REDIS_KEY_PREFIX"`
	EnforceOwnership      bool   `mapstructure:"ENFORCE_OWNERSHIP"`
	CORSAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	WSMaxSessionSec       int    `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer        int    `mapstructure:"WS_OUTBOX_BUFFER"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	PyroscopeServerAddr   string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

// Validation errors returned by Config.Validate
var (
	ErrAppPortRange            = errors.New("APP_PORT must be between 1 and 65535")
	ErrBcryptCostRange         = errors.New("BCRYPT_COST must be between 4 and 16")
	ErrLogLevelEmpty           = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty          = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty           = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty        = errors.New("MONGO_DB_NAME cannot be empty")
	ErrSessionStoreUnsupported = errors.New("SESSION_STORE must be either memory or redis")
	ErrRedisAddrEmpty          = errors.New("REDIS_ADDR cannot be empty when SESSION_STORE=redis")
	ErrRedisDBNegative         = errors.New("REDIS_DB must be greater than or equal to 0")
	ErrSessionTTL              = errors.New("SESSION_TTL_MINUTES must be greater than 0")
	ErrSessionCookieNameEmpty  = errors.New("SESSION_COOKIE_NAME cannot be empty")
	ErrSessionCookieSameSite   = errors.New("SESSION_COOKIE_SAMESITE must be one of Lax, Strict, None")
	ErrSameSiteNoneInsecure    = errors.New("SESSION_COOKIE_SAMESITE=None requires SESSION_COOKIE_SECURE=true")
	ErrWSMaxSessionSec         = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrWSOutboxBuffer          = errors.New("WS_OUTBOX_BUFFER must be greater than 0")
)

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 6000)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("MONGO_DB_NAME", "blog")
	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("SESSION_SLIDING", false)
	v.SetDefault("SESSION_COOKIE_NAME", "sessionID")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_COOKIE_SAMESITE", "Lax")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "session:")
	v.SetDefault("ENFORCE_OWNERSHIP", false)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 256)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")

	// Configure Viper to read from .env file (if present)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Try to read .env file (it's okay if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	// Override with OS environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.BcryptCost < 4 || c.BcryptCost > 16 {
		return ErrBcryptCostRange
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			return ErrRedisAddrEmpty
		}
	default:
		return ErrSessionStoreUnsupported
	}
	if c.SessionTTLMinutes <= 0 {
		return ErrSessionTTL
	}
	if c.SessionCookieName == "" {
		return ErrSessionCookieNameEmpty
	}
	switch strings.ToLower(c.SessionCookieSameSite) {
	case "lax", "strict", "none":
	default:
		return ErrSessionCookieSameSite
	}
	// Browsers reject SameSite=None cookies that are not Secure.
	if strings.EqualFold(c.SessionCookieSameSite, "none") && !c.SessionCookieSecure {
		return ErrSameSiteNoneInsecure
	}
	if c.RedisDB < 0 {
		return ErrRedisDBNegative
	}
	if c.WSMaxSessionSec <= 0 {
		return ErrWSMaxSessionSec
	}
	if c.WSOutboxBuffer <= 0 {
		return ErrWSOutboxBuffer
	}
	return nil
}
