// Package config loads the process configuration once at startup.
//
// Values come from an optional .env file and the environment. The resulting
// Config is treated as immutable and handed to module constructors; nothing
// below main reads the environment directly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds every tunable of the server.
type Config struct {
	Port int

	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string
	BcryptCost    int

	StoreDriver   string
	AuthDBPath    string
	TaskDBPath    string
	MongoURI      string
	MongoDatabase string

	RedisAddr         string
	RedisPassword     string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSOrigins     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when no variable is set.
// JWTSecret has no default and must be provided.
func Default() Config {
	return Config{
		Port:              5001,
		JWTExpiration:     24 * time.Hour,
		JWTIssuer:         "task-manager",
		BcryptCost:        10,
		StoreDriver:       DriverSQLite,
		AuthDBPath:        "users.db",
		TaskDBPath:        "tasks.db",
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabase:     "task_manager",
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
		CORSOrigins:       "http://localhost:5173",
		LogLevel:          "info",
		LogFormat:         "json",
		ShutdownTimeout:   30 * time.Second,
	}
}

// Load reads the .env files (if present) and the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a variable lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.int("PORT", &cfg.Port)
	p.str("JWT_SECRET", &cfg.JWTSecret)
	p.duration("JWT_EXPIRATION", &cfg.JWTExpiration)
	p.str("JWT_ISSUER", &cfg.JWTIssuer)
	p.int("BCRYPT_COST", &cfg.BcryptCost)
	p.str("STORE_DRIVER", &cfg.StoreDriver)
	p.str("AUTH_DB_PATH", &cfg.AuthDBPath)
	p.str("TASK_DB_PATH", &cfg.TaskDBPath)
	p.str("MONGO_URI", &cfg.MongoURI)
	p.str("MONGO_DATABASE", &cfg.MongoDatabase)
	p.str("REDIS_ADDR", &cfg.RedisAddr)
	p.str("REDIS_PASSWORD", &cfg.RedisPassword)
	p.int("RATE_LIMIT_REQUESTS", &cfg.RateLimitRequests)
	p.duration("RATE_LIMIT_WINDOW", &cfg.RateLimitWindow)
	p.str("CORS_ORIGINS", &cfg.CORSOrigins)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("LOG_FORMAT", &cfg.LogFormat)
	p.duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}

	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.AuthDBPath == "" || c.TaskDBPath == "" {
			errs = append(errs, errors.New("AUTH_DB_PATH and TASK_DB_PATH are required for the sqlite driver"))
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of sqlite, mongo, memory, got %q", c.StoreDriver))
	}

	if c.RedisAddr != "" {
		if c.RateLimitRequests <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
		}
		if c.RateLimitWindow <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// RateLimitEnabled reports whether a Redis server is configured.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != ""
}

// ParseDuration parses a Go duration, additionally accepting a whole number
// of days such as "1d" or "7d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) int(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return
	}
	*dst = n
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
