package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_DSN", "REDIS_URL", "REST_PORT", "WS_PORT", "LOG_LEVEL",
		"ESPN_CORE_API_BASE", "ESPN_SITE_API_BASE", "PACE_INTERVAL",
		"CURRENT_SEASON", "SUPABASE_URL", "SUPABASE_SERVICE_KEY",
		"HEADSHOT_BUCKET", "HEADSHOT_MAX_AGE", "LINES_ENABLED", "LINES_URL",
		"CRON_STATS", "CRON_SCHEDULE", "CRON_PLAYERS", "CRON_HEADSHOTS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DatabaseDSN, "postgres://")
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "8080", cfg.RESTPort)
	assert.Equal(t, "8081", cfg.WSPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100*time.Millisecond, cfg.PaceInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.HeadshotMaxAge)
	assert.Equal(t, time.Now().Year(), cfg.CurrentSeason)
	assert.False(t, cfg.LinesEnabled)
	assert.Equal(t, "headshots", cfg.HeadshotBucket)
	assert.Equal(t, "0 4 * * 2", cfg.CronStats)
	assert.NotEmpty(t, cfg.ESPNCoreAPIBase)
	assert.NotEmpty(t, cfg.ESPNSiteAPIBase)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/gridiron")
	t.Setenv("REST_PORT", "9090")
	t.Setenv("PACE_INTERVAL", "250ms")
	t.Setenv("CURRENT_SEASON", "2024")
	t.Setenv("LINES_ENABLED", "true")
	t.Setenv("LINES_URL", "https://lines.example.com/nfl")
	t.Setenv("HEADSHOT_MAX_AGE", "48h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/gridiron", cfg.DatabaseDSN)
	assert.Equal(t, "9090", cfg.RESTPort)
	assert.Equal(t, 250*time.Millisecond, cfg.PaceInterval)
	assert.Equal(t, 2024, cfg.CurrentSeason)
	assert.True(t, cfg.LinesEnabled)
	assert.Equal(t, "https://lines.example.com/nfl", cfg.LinesURL)
	assert.Equal(t, 48*time.Hour, cfg.HeadshotMaxAge)
}

func TestLoadRejectsUnparseableValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PACE_INTERVAL", "fast"},
		{"CURRENT_SEASON", "twenty twenty five"},
		{"LINES_ENABLED", "yep"},
		{"HEADSHOT_MAX_AGE", "one week"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
