package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8091", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "sectorlag", cfg.Database.Name)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
	assert.Equal(t, "config/universe.yaml", cfg.UniverseFile)
	assert.Equal(t, "config/strategy.yaml", cfg.StrategyFile)
	assert.Equal(t, "research", cfg.OutputDir)
	assert.Equal(t, 2.0, cfg.Stooq.RequestsPerSec)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("STOOQ_REQUESTS_PER_SEC", "0.5")
	t.Setenv("OUTPUT_DIR", "/tmp/out")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 50, cfg.Database.MaxConns)
	assert.Equal(t, 0.5, cfg.Stooq.RequestsPerSec)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("ENV", "sandbox")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV must be one of")
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("DB_MAX_CONN_LIFETIME", "forever")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, time.Hour, cfg.Database.MaxConnLifetime)
}
