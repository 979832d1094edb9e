package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Token store backends.
const (
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds gateway configuration.
type Config struct {
	ServerAddr string
	LogLevel   string

	BackendURL       string
	BackendLoginPath string
	BackendTimeout   time.Duration
	// BackendRateLimit is requests per second; zero disables throttling.
	BackendRateLimit float64
	BackendRateBurst int

	LoginPath string

	TokenStore     string
	TokenStorePath string
	TokenStoreKey  string
	DatabaseURL    string
	MigrationsDir  string

	SealingKeys  string
	SealingKeyID string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:       getenv("SERVER_ADDR", "127.0.0.1:8090"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		BackendURL:       os.Getenv("BACKEND_URL"),
		BackendLoginPath: getenv("BACKEND_LOGIN_PATH", "/auth/login"),
		BackendTimeout:   parseDuration(getenv("BACKEND_TIMEOUT", "30s"), 30*time.Second),
		BackendRateLimit: parseFloat(os.Getenv("BACKEND_RATE_LIMIT"), 0),
		BackendRateBurst: parseInt(getenv("BACKEND_RATE_BURST", "10"), 10),
		LoginPath:        getenv("LOGIN_PATH", "/login"),
		TokenStore:       strings.ToLower(getenv("TOKEN_STORE", StoreBolt)),
		TokenStorePath:   getenv("TOKEN_STORE_PATH", "data/session.db"),
		TokenStoreKey:    getenv("TOKEN_STORE_KEY", "default"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MigrationsDir:    getenv("MIGRATIONS_DIR", "internal/migrations"),
		SealingKeys:      os.Getenv("TOKEN_SEALING_KEYS"),
		SealingKeyID:     os.Getenv("TOKEN_SEALING_KEY_ID"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must be an absolute path, got %q", c.LoginPath)
	}
	switch c.TokenStore {
	case StoreBolt, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for TOKEN_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}
	if c.BackendRateLimit < 0 {
		return fmt.Errorf("BACKEND_RATE_LIMIT must not be negative")
	}
	return nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
