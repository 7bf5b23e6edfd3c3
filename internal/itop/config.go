package itop

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds connection settings for the iTop REST endpoint.
type Config struct {
	BaseURL   string
	User      string
	Password  string
	Version   string
	TimeoutMs int
	LogCalls  bool
	UserAgent string
}

// DefaultConfig returns a Config with defaults for everything except the
// connection credentials.
func DefaultConfig() Config {
	return Config{
		Version:   "1.4",
		TimeoutMs: 30000,
		UserAgent: "itopnl/1.0",
	}
}

// LoadConfig reads ITOP_* environment variables, falling back to defaults
// for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("ITOP_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	cfg.User = os.Getenv("ITOP_USER")
	cfg.Password = os.Getenv("ITOP_PASSWORD")
	if v := os.Getenv("ITOP_VERSION"); v != "" {
		cfg.Version = v
	}
	if v := os.Getenv("ITOP_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("ITOP_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}

	return cfg
}

// Validate reports every missing required setting in one error.
func (c Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "ITOP_BASE_URL")
	}
	if c.User == "" {
		missing = append(missing, "ITOP_USER")
	}
	if c.Password == "" {
		missing = append(missing, "ITOP_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Endpoint is the REST script URL.
func (c Config) Endpoint() string {
	return c.BaseURL + "/webservices/rest.php"
}
