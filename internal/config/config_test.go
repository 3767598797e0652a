package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "pairwise", cfg.SettlementAlgorithm)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("SETTLEMENT_ALGORITHM", "minimal")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "minimal", cfg.SettlementAlgorithm)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SETTLEMENT_ALGORITHM", "greedy")
	_, err = Load()
	require.Error(t, err)
}
