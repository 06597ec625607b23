package config

import "time"

// Config holds runtime settings for the survey client.
//
// Fields:
//   - ServerAddr: base URL of the backend HTTP API.
//   - DatabasePath: filesystem path of the local SQLite database.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - QualityCheckInterval: how often connection quality is re-measured.
//   - AutoSaveDebounce: quiet period after the last edit before an auto-save.
//
// Units: intervals are time.Duration values (e.g., 3*time.Second).
type Config struct {
	ServerAddr           string
	DatabasePath         string
	OnlineCheckInterval  time.Duration
	QualityCheckInterval time.Duration
	AutoSaveDebounce     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "sitesurvey.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.QualityCheckInterval = 30 * time.Second
	c.AutoSaveDebounce = 500 * time.Millisecond
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
