package devserver

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

const envPrefix = "NUTRINOW_DEV_"

// Config holds the development backend settings.
type Config struct {
	Addr       string
	Secret     string
	SessionTTL time.Duration
	BcryptCost int
	LogLevel   string
}

// LoadDefaults populates c with local development values.
// NOTE: the secret is public and must be overridden anywhere but localhost.
func (c *Config) LoadDefaults() {
	c.Addr = ":5000"
	c.Secret = "nutrinow-dev-secret"
	c.SessionTTL = 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.LogLevel = "info"
}

// BindFlags registers the devserver flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("addr", "a", "", "address and port to listen on")
	fs.StringP("secret", "s", "", "HMAC secret for session tokens")
	fs.Duration("session-ttl", 0, "session cookie lifetime")
	fs.Int("bcrypt-cost", 0, "bcrypt cost for password hashes")
	fs.String("log-level", "", "log level: debug, info, warn or error")
}

// LoadConfig applies defaults, then NUTRINOW_DEV_* variables, then any flag
// set explicitly on fs.
func LoadConfig(fs *pflag.FlagSet, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.parseEnv(lookup); err != nil {
		return nil, err
	}
	if fs != nil {
		if err := cfg.applyFlags(fs); err != nil {
			return nil, err
		}
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret must not be empty")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return cfg, nil
}

func (c *Config) parseEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return v, ok && v != ""
	}

	if v, ok := get("ADDR"); ok {
		c.Addr = v
	}
	if v, ok := get("SECRET"); ok {
		c.Secret = v
	}
	if v, ok := get("SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSESSION_TTL: %w", envPrefix, err)
		}
		c.SessionTTL = d
	}
	if v, ok := get("BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBCRYPT_COST: %w", envPrefix, err)
		}
		c.BcryptCost = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("addr") {
		if c.Addr, err = fs.GetString("addr"); err != nil {
			return err
		}
	}
	if fs.Changed("secret") {
		if c.Secret, err = fs.GetString("secret"); err != nil {
			return err
		}
	}
	if fs.Changed("session-ttl") {
		if c.SessionTTL, err = fs.GetDuration("session-ttl"); err != nil {
			return err
		}
	}
	if fs.Changed("bcrypt-cost") {
		if c.BcryptCost, err = fs.GetInt("bcrypt-cost"); err != nil {
			return err
		}
	}
	if fs.Changed("log-level") {
		if c.LogLevel, err = fs.GetString("log-level"); err != nil {
			return err
		}
	}
	return nil
}
