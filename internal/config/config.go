// Package config reads the server configuration from flags, falling back to
// environment variables (optionally loaded from a .env file).
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DatabaseType    string
	DatabaseURL     string
	RedisURL        string
	FingerprintSalt string
	CookieSecure    bool
	CreateRateLimit int
	VoteRateLimit   int
	RateLimitWindow time.Duration
	LogLevel        slog.Level
}

// Load parses args on top of the environment. A missing .env file is not an
// error.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return Parse(args)
}

// Parse reads the configuration from args and the current environment.
func Parse(args []string) (Config, error) {
	var cfg Config
	var logLevel string

	createLimit, err := envInt("CREATE_RATE_LIMIT", 10)
	if err != nil {
		return Config{}, err
	}
	voteLimit, err := envInt("VOTE_RATE_LIMIT", 20)
	if err != nil {
		return Config{}, err
	}
	window, err := envDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cookieSecure, err := envBool("COOKIE_SECURE", false)
	if err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("livepoll", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", envOr("ADDR", ":8080"), "Listen address")
	fs.StringVar(&cfg.DatabaseType, "db-type", envOr("DATABASE_TYPE", "sqlite"), "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseURL, "db-url", envOr("DATABASE_URL", "file:livepoll.db"), "Database URL")
	fs.StringVar(&cfg.RedisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL for shared rate limits (optional)")
	fs.StringVar(&cfg.FingerprintSalt, "fingerprint-salt", os.Getenv("FINGERPRINT_SALT"), "Voter fingerprint salt (prefer env)")
	fs.BoolVar(&cfg.CookieSecure, "cookie-secure", cookieSecure, "Mark voter cookies Secure")
	fs.IntVar(&cfg.CreateRateLimit, "create-rate-limit", createLimit, "Poll creations per client per window")
	fs.IntVar(&cfg.VoteRateLimit, "vote-rate-limit", voteLimit, "Votes per client per window")
	fs.DurationVar(&cfg.RateLimitWindow, "rate-limit-window", window, "Rate limit window")
	fs.StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	switch strings.ToLower(cfg.DatabaseType) {
	case "sqlite", "postgres":
		cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	default:
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -db-url or DATABASE_URL env)")
	}
	if cfg.CreateRateLimit < 1 || cfg.VoteRateLimit < 1 {
		return Config{}, errors.New("rate limits must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		return Config{}, errors.New("rate limit window must be positive")
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", logLevel)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable", key)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}
