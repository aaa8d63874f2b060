// Package config собирает конфигурацию сервера из значений по умолчанию,
// .env файла, переменных окружения и флагов командной строки.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	// minProductionSecretLen минимальная длина JWT секрета в production
	minProductionSecretLen = 32
)

// Config конфигурация сервера
type Config struct {
	Addr               string
	Mode               string
	DatabaseDriver     string
	DatabaseDSN        string
	JWTSecret          string
	RedisURL           string
	LogLevel           string
	CORSAllowedOrigins []string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	LoginRateWindow    time.Duration
	ShutdownTimeout    time.Duration
	LoginRateLimit     int
	ShowVersion        bool
	TrustProxy         bool
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Addr:               ":8080",
		Mode:               ModeDevelopment,
		DatabaseDriver:     DriverSQLite,
		DatabaseDSN:        "bookshelf.db",
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		LoginRateLimit:     10,
		LoginRateWindow:    15 * time.Minute,
		ShutdownTimeout:    10 * time.Second,
	}
}

// Load читает конфигурацию. Приоритет: флаги > окружение > .env > значения по умолчанию.
// Отсутствующий .env файл ошибкой не считается.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	setString("ADDR", &c.Addr)
	setString("APP_ENV", &c.Mode)
	setString("DB_DRIVER", &c.DatabaseDriver)
	setString("DATABASE_DSN", &c.DatabaseDSN)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("REDIS_URL", &c.RedisURL)
	setString("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ACCESS_TOKEN_EXPIRES", &c.AccessTokenTTL},
		{"REFRESH_TOKEN_EXPIRES", &c.RefreshTokenTTL},
		{"LOGIN_RATE_WINDOW", &c.LoginRateWindow},
		{"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup("TRUST_PROXY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TRUST_PROXY: %w", err)
		}
		c.TrustProxy = b
	}

	if v, ok := lookup("LOGIN_RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
		}
		c.LoginRateLimit = n
	}

	return nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("bookshelf-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.Addr, "a", c.Addr, "HTTP listen address")
	fs.StringVar(&c.Mode, "m", c.Mode, "run mode: development or production")
	fs.StringVar(&c.DatabaseDriver, "driver", c.DatabaseDriver, "database driver: sqlite or pgx")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.StringVar(&c.JWTSecret, "s", c.JWTSecret, "JWT signing secret")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "redis URL for shared rate limiting")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&c.TrustProxy, "trust-proxy", c.TrustProxy, "take client IP from X-Forwarded-For (only behind a reverse proxy)")
	fs.BoolVar(&c.ShowVersion, "version", false, "show version information")

	fs.Func("access-ttl", "access token lifetime", durationFlag(&c.AccessTokenTTL))
	fs.Func("refresh-ttl", "refresh token lifetime (supports d suffix)", durationFlag(&c.RefreshTokenTTL))

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	return nil
}

func durationFlag(dst *time.Duration) func(string) error {
	return func(s string) error {
		d, err := ParseDuration(s)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}

	if c.DatabaseDSN == "" {
		return errors.New("database DSN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < minProductionSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return errors.New("login rate limit and window must be positive")
	}

	return nil
}

// IsProduction сообщает, запущен ли сервер в production режиме
func (c *Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

// ParseDuration разбирает длительность в формате time.ParseDuration,
// дополнительно понимая суффикс d (дни), например "7d".
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
