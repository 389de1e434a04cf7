package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "./data/prices.db", cfg.DBPath)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "https://api.kroger.com/v1", cfg.KrogerBaseURL)
	assert.Equal(t, "America/New_York", cfg.HarvestTimezone)
	assert.Equal(t, 10000, cfg.RequestsPerDay)
	assert.Zero(t, cfg.StoreLimit)
	assert.False(t, cfg.DryRun)
	assert.Empty(t, cfg.LowColor)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("STORE_LIMIT", "25")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("LOW_COLOR", "#000000")
	t.Setenv("KROGER_CLIENT_ID", "client-id")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 25, cfg.StoreLimit)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "#000000", cfg.LowColor)
	assert.Equal(t, "client-id", cfg.KrogerClientID)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("STORE_LIMIT", "not-a-number")
	t.Setenv("DRY_RUN", "maybe")

	cfg := Load()

	assert.Zero(t, cfg.StoreLimit)
	assert.False(t, cfg.DryRun)
}
