package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("STORE_DRIVER", StoreMemory)
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("TENMO_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "1000.00", cfg.StartingBalance.String())
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, "tenmo-ledger", cfg.JWTIssuer)
	assert.Equal(t, "tenmo-api", cfg.JWTAudience)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreMemory)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreMemory)
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 characters")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret)
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9999")
	t.Setenv("STARTING_BALANCE", "250.50")
	t.Setenv("RECONCILE_INTERVAL", "10m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, "250.50", cfg.StartingBalance.String())
	assert.Equal(t, 10*time.Minute, cfg.ReconcileInterval)
}

func TestLoadPrefixedFallback(t *testing.T) {
	setRequired(t)
	t.Setenv("TENMO_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
}

func TestLoadRejectsBadStartingBalance(t *testing.T) {
	setRequired(t)
	t.Setenv("STARTING_BALANCE", "lots")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("STARTING_BALANCE", "-5.00")
	_, err = Load()
	require.Error(t, err)
}
