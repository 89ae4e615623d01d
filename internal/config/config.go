package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	AuthToken string `envconfig:"AUTH_TOKEN"`
	DBURL     string `envconfig:"DB_URL"`

	ReadTimeoutSecs  int `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeoutSecs int `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	IdleTimeoutSecs  int `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`

	DBMaxConns        int `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns        int `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxIdleSecs     int `envconfig:"DB_MAX_CONN_IDLE_SECS" default:"300"`
	DBMaxLifeSecs     int `envconfig:"DB_MAX_CONN_LIFETIME_SECS" default:"3600"`
	DBConnTimeoutSecs int `envconfig:"DB_CONN_TIMEOUT_SECS" default:"10"`
	DBStatementCache  int `envconfig:"DB_STATEMENT_CACHE_CAPACITY" default:"256"`

	MigrateOnStart bool `envconfig:"MIGRATE_ON_START" default:"false"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	SearchCacheTTLSecs int    `envconfig:"SEARCH_CACHE_TTL_SECS" default:"60"`

	CORSAllowedOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	RateLimitRequests   int      `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindowSecs int      `envconfig:"RATE_LIMIT_WINDOW_SECS" default:"60"`
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults and validation.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and numeric ranges.
func (c Config) Validate() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if c.SearchCacheTTLSecs < 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL_SECS must be non-negative")
	}
	if c.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative")
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive when rate limiting is enabled")
	}
	return nil
}

// SearchCacheTTL returns the search cache lifetime.
func (c Config) SearchCacheTTL() time.Duration {
	return time.Duration(c.SearchCacheTTLSecs) * time.Second
}

// RateLimitWindow returns the rate limiting window.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSecs) * time.Second
}
