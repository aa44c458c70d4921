package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.False(t, cfg.Database.UseOracle)
	assert.Equal(t, "./data/price-compare.db", cfg.Database.URL)
	assert.Equal(t, 2.0, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.Ingestion.PreferLongerNames)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadReadsBoundEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("USE_ORACLE", "true")
	t.Setenv("DATABASE_URL", "postgres://example/db")
	t.Setenv("PORT", "9090")
	t.Setenv("AUTO_IMPORT", "true")
	t.Setenv("SECRET_KEY", "super-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Database.UseOracle)
	assert.Equal(t, "postgres://example/db", cfg.Database.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Ingestion.AutoImport)
	assert.Equal(t, "super-secret", cfg.Auth.SecretKey)
}

func TestGetReturnsLastLoadedConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Same(t, cfg, Get())
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/.env", []byte("SECRET_KEY=from-dotenv\n# a comment\n\nLOG_LEVEL=debug\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.SecretKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
