package service

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"ITOP_DEFAULT_LIMIT", "ITOP_DISCOVERY_LIMIT", "ITOP_SCHEMA_CACHE_SIZE",
		"ITOP_METRICS_ADDR", "ITOP_UNVERIFIED_FILTERS", "ITOP_LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ITOP_DEFAULT_LIMIT", "25")
	t.Setenv("ITOP_DISCOVERY_LIMIT", "80")
	t.Setenv("ITOP_SCHEMA_CACHE_SIZE", "64")
	t.Setenv("ITOP_METRICS_ADDR", ":9102")
	t.Setenv("ITOP_UNVERIFIED_FILTERS", "Drop")
	t.Setenv("ITOP_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.DefaultLimit)
	assert.Equal(t, 80, cfg.DiscoveryLimit)
	assert.Equal(t, 64, cfg.SchemaCacheSize)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
	assert.Equal(t, PolicyDrop, cfg.Unverified)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfig_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("ITOP_DEFAULT_LIMIT", "lots")
	t.Setenv("ITOP_DISCOVERY_LIMIT", "-3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.DefaultLimit)
	assert.Equal(t, 50, cfg.DiscoveryLimit)
}

func TestLoadConfig_RejectsUnknownPolicyAndLevel(t *testing.T) {
	t.Setenv("ITOP_UNVERIFIED_FILTERS", "guess")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("ITOP_UNVERIFIED_FILTERS", "")
	t.Setenv("ITOP_LOG_LEVEL", "chatty")
	_, err = LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseUnverifiedPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want UnverifiedPolicy
	}{
		{"", PolicyDiscover},
		{"discover", PolicyDiscover},
		{" DROP ", PolicyDrop},
		{"abort", PolicyAbort},
	}
	for _, tt := range tests {
		got, err := ParseUnverifiedPolicy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseUnverifiedPolicy("maybe")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
