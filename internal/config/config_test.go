package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		t.Setenv("SERVER_ADDR", "localhost:8080")
		t.Setenv("DATABASE_DSN", "host=localhost user=postgres dbname=postgres sslmode=disable")
		t.Setenv("JWT_SIGNING_KEY", "some_secret")
		t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173")
		t.Setenv("PRESENCE_SWEEP_INTERVAL", "1m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost:8080", cfg.ServerAddr, "expected server address to match")
		assert.Equal(t, []byte("some_secret"), cfg.SigningKey, "expected signing key to match")
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins,
			"expected allowed origins to be split and trimmed")
		assert.Equal(t, time.Minute, cfg.SweepInterval, "expected sweep interval to be parsed")
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "some_secret")
		t.Setenv("SERVER_ADDR", "")
		t.Setenv("PRESENCE_SWEEP_INTERVAL", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost:8000", cfg.ServerAddr, "expected default server address")
		assert.Equal(t, 5*time.Minute, cfg.SweepInterval, "expected default sweep interval")
		assert.Equal(t, "migrations", cfg.MigrationsPath, "expected default migrations path")
		assert.Empty(t, cfg.AllowedOrigins, "expected no allowed origins by default")
	})

	t.Run("missing signing key", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "")

		_, err := Load()
		assert.Error(t, err, "expected error when signing key is unset")
	})

	t.Run("bad sweep interval falls back to default", func(t *testing.T) {
		t.Setenv("JWT_SIGNING_KEY", "some_secret")
		t.Setenv("PRESENCE_SWEEP_INTERVAL", "not-a-duration")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, cfg.SweepInterval, "expected fallback to default interval")
	})
}
