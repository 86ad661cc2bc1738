package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.CleanupInterval)
	assert.Equal(t, 10*time.Second, cfg.Aggregator.Timeout)
	assert.Empty(t, cfg.Aggregator.BaseURL)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, "crafting-planner", cfg.App.Name)
	assert.False(t, cfg.Trace.Enabled)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("AGGREGATOR_URL", "http://calc.local")
	t.Setenv("TRACE_ENABLED", "true")
	t.Setenv("APP_SESSION_TTL", "15m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://calc.local", cfg.Aggregator.BaseURL)
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_QUEUE_WORKERS", "0")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "invalid queue workers")
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "abcd...wxyz", MaskAPIKey("abcdefghijklmnopqrstuvwxyz"))
}
