package config

import "time"

// Config holds runtime settings for the sealdrop CLI.
//
// Fields:
//   - ServerURL: base URL of the sealdrop HTTP API.
//   - DBPath: path of the local SQLite database holding the encryption key
//     and the session.
//   - RequestTimeout: upper bound for a single API call.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerURL      string
	DBPath         string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DBPath = "sealdrop.db"
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
