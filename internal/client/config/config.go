package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
)

// Config holds runtime settings for the NutriNow client.
//
// RateLimit is in requests per second; zero disables client-side throttling.
type Config struct {
	ServerURL      string
	DBPath         string
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5000"
	c.DBPath = defaultDBPath()
	c.RequestTimeout = 30 * time.Second
	c.RateLimit = 5
	c.RateBurst = 10
	c.LogLevel = "warn"
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "nutrinow.db"
	}
	return filepath.Join(dir, "nutrinow", "nutrinow.db")
}

// Load builds a Config from defaults, the JSON file named by --config, the
// environment and finally the flags in fs that were set explicitly. fs must
// have been prepared with BindFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server url must not be empty")
	}
	return cfg, nil
}
