package service

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// UnverifiedPolicy decides what happens to filters whose values were
// guessed from the query wording.
type UnverifiedPolicy string

const (
	// PolicyDiscover samples remote values and applies what it can match.
	PolicyDiscover UnverifiedPolicy = "discover"
	// PolicyDrop skips unverified filters and says so.
	PolicyDrop UnverifiedPolicy = "drop"
	// PolicyAbort refuses to run a query with unverified filters.
	PolicyAbort UnverifiedPolicy = "abort"
)

// ParseUnverifiedPolicy accepts a case-insensitive policy name.
func ParseUnverifiedPolicy(s string) (UnverifiedPolicy, error) {
	switch p := UnverifiedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyDiscover, PolicyDrop, PolicyAbort:
		return p, nil
	case "":
		return PolicyDiscover, nil
	default:
		return "", fmt.Errorf("%w: unknown unverified filter policy %q (want discover, drop or abort)", ErrInvalidConfig, s)
	}
}

// Config holds pipeline settings. Connection settings live in itop.Config.
type Config struct {
	DefaultLimit    int
	Unverified      UnverifiedPolicy
	DiscoveryLimit  int
	SchemaCacheSize int
	LogLevel        slog.Level
	MetricsAddr     string
}

func DefaultConfig() Config {
	return Config{
		DefaultLimit:    100,
		Unverified:      PolicyDiscover,
		DiscoveryLimit:  50,
		SchemaCacheSize: 512,
		LogLevel:        slog.LevelInfo,
	}
}

// LoadConfig reads pipeline settings from ITOP_* environment variables.
// Malformed numbers fall back to defaults; an unknown policy or log level
// is an error.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	cfg.DefaultLimit = positiveInt("ITOP_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DiscoveryLimit = positiveInt("ITOP_DISCOVERY_LIMIT", cfg.DiscoveryLimit)
	cfg.SchemaCacheSize = positiveInt("ITOP_SCHEMA_CACHE_SIZE", cfg.SchemaCacheSize)
	cfg.MetricsAddr = os.Getenv("ITOP_METRICS_ADDR")

	p, err := ParseUnverifiedPolicy(os.Getenv("ITOP_UNVERIFIED_FILTERS"))
	if err != nil {
		return Config{}, err
	}
	cfg.Unverified = p

	if v := os.Getenv("ITOP_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("%w: ITOP_LOG_LEVEL %q", ErrInvalidConfig, v)
		}
	}
	return cfg, nil
}

func positiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
