package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "retailops", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 12*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.Revenue.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.True(t, cfg.UseMemoryStore())
	assert.False(t, cfg.UseRedis())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RETAILOPS_APP_PORT", "9090")
	t.Setenv("RETAILOPS_DATABASE_URL", "postgres://localhost/retailops")
	t.Setenv("RETAILOPS_REDIS_ADDR", "localhost:6379")
	t.Setenv("RETAILOPS_REVENUE_CACHE_TTL", "30s")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "postgres://localhost/retailops", cfg.Database.URL)
	assert.False(t, cfg.UseMemoryStore())
	assert.True(t, cfg.UseRedis())
	assert.Equal(t, 30*time.Second, cfg.Revenue.CacheTTL)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	body := "[app]\nport = \"7070\"\n\n[log]\nlevel = \"debug\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))

	t.Run("file beats defaults", func(t *testing.T) {
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.App.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("RETAILOPS_LOG_LEVEL", "warn")
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
	})
}

func TestValidate(t *testing.T) {
	t.Run("production needs a real secret", func(t *testing.T) {
		t.Setenv("RETAILOPS_APP_ENV", "production")
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("pool bounds", func(t *testing.T) {
		t.Setenv("RETAILOPS_DATABASE_MAX_CONNS", "1")
		t.Setenv("RETAILOPS_DATABASE_MIN_CONNS", "4")
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})
}
