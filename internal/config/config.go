// Package config loads application configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig is wrapped by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port string `env:"APP_PORT" envDefault:"8080"`

	Tricket TricketConfig
	Cache   CacheConfig
	DB      DBConfig        `envPrefix:"DB_"`
	Redis   RedisConfig     `envPrefix:"REDIS_"`
	Limit   RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	RabbitMQURL  string `env:"RABBITMQ_URL"`
	SyncConsumer bool   `env:"SYNC_CONSUMER_ENABLED" envDefault:"false"`
	SyncLogDir   string `env:"SYNC_LOG_DIR" envDefault:"logs"`

	JWTSecret         string `env:"JWT_SECRET"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	AccessTTLMin      int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"15"`
}

// TricketConfig is the remote API connection and the public URL layout.
type TricketConfig struct {
	APIURL          string        `env:"TRICKET_API_URL"`
	APIKey          string        `env:"TRICKET_API_KEY"`
	APITimeout      time.Duration `env:"TRICKET_API_TIMEOUT" envDefault:"10s"`
	ProductionsSlug string        `env:"TRICKET_PRODUCTIONS_SLUG" envDefault:"productions"`
	HomeURL         string        `env:"TRICKET_HOME_URL"`
	Timezone        string        `env:"TRICKET_TIMEZONE" envDefault:"UTC"`
}

// Location resolves Timezone, falling back to UTC.
func (t TricketConfig) Location() *time.Location {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DBConfig locates the MySQL database used by the mysql cache driver.
type DBConfig struct {
	User string `env:"USER"`
	Pass string `env:"PASS"`
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port string `env:"PORT" envDefault:"3306"`
	Name string `env:"NAME"`
}

// Load reads an optional .env file, then parses the environment. The
// result is not validated; call Validate before using it.
func Load() (Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Limit.normalize()
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var problems []string
	if c.Tricket.APIURL == "" {
		problems = append(problems, "TRICKET_API_URL is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.Cache.TimeMin < 0 {
		problems = append(problems, "TRICKET_CACHE_TIME must not be negative")
	}
	if c.AccessTTLMin <= 0 {
		problems = append(problems, "ACCESS_TOKEN_TTL_MIN must be positive")
	}
	switch c.Cache.Driver {
	case DriverMemory, DriverRedis:
	case DriverMySQL:
		if c.DB.User == "" || c.DB.Name == "" {
			problems = append(problems, "DB_USER and DB_NAME are required for the mysql cache driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("CACHE_DRIVER %q is not one of memory, redis, mysql", c.Cache.Driver))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// AccessTTL is the admin token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}
