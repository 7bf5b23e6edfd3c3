package itop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ITOP_BASE_URL", "")
	t.Setenv("ITOP_VERSION", "")
	t.Setenv("ITOP_TIMEOUT_MS", "")

	cfg := LoadConfig()

	assert.Equal(t, "1.4", cfg.Version)
	assert.Equal(t, 30000, cfg.TimeoutMs)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ITOP_BASE_URL", "https://itop.example.com/")
	t.Setenv("ITOP_USER", "svc")
	t.Setenv("ITOP_PASSWORD", "pw")
	t.Setenv("ITOP_VERSION", "1.3")
	t.Setenv("ITOP_TIMEOUT_MS", "5000")
	t.Setenv("ITOP_LOG_CALLS", "true")

	cfg := LoadConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://itop.example.com/webservices/rest.php", cfg.Endpoint())
	assert.Equal(t, "1.3", cfg.Version)
	assert.Equal(t, 5000, cfg.TimeoutMs)
	assert.True(t, cfg.LogCalls)
}

func TestLoadConfig_InvalidTimeoutIgnored(t *testing.T) {
	t.Setenv("ITOP_TIMEOUT_MS", "soon")

	assert.Equal(t, 30000, LoadConfig().TimeoutMs)
}

func TestConfig_Validate_ListsEveryMissingSetting(t *testing.T) {
	err := Config{User: "svc"}.Validate()

	require.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, err.Error(), "ITOP_BASE_URL")
	assert.Contains(t, err.Error(), "ITOP_PASSWORD")
	assert.NotContains(t, err.Error(), "ITOP_USER")
}
