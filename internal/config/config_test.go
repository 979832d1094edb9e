package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://backoffice.example/api")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8090", cfg.ServerAddr)
	assert.Equal(t, "/auth/login", cfg.BackendLoginPath)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, float64(0), cfg.BackendRateLimit)
	assert.Equal(t, "/login", cfg.LoginPath)
	assert.Equal(t, StoreBolt, cfg.TokenStore)
	assert.Equal(t, "data/session.db", cfg.TokenStorePath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://backoffice.example/api")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("BACKEND_RATE_LIMIT", "2.5")
	t.Setenv("BACKEND_RATE_BURST", "notanumber")
	t.Setenv("TOKEN_STORE", "Memory")
	t.Setenv("LOGIN_PATH", "/#/login")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2.5, cfg.BackendRateLimit)
	assert.Equal(t, 10, cfg.BackendRateBurst)
	assert.Equal(t, StoreMemory, cfg.TokenStore)
	assert.Equal(t, "/#/login", cfg.LoginPath)
}

func TestLoadValidation(t *testing.T) {
	t.Run("backend required", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("postgres needs dsn", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "https://backoffice.example")
		t.Setenv("TOKEN_STORE", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "https://backoffice.example")
		t.Setenv("TOKEN_STORE", "redis")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("relative login path", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "https://backoffice.example")
		t.Setenv("LOGIN_PATH", "login")
		_, err := Load()
		assert.Error(t, err)
	})
}
