package config

import (
	"github.com/spf13/pflag"
)

// Flag names registered by BindFlags.
const (
	FlagConfig    = "config"
	FlagServer    = "server"
	FlagDB        = "db"
	FlagTimeout   = "timeout"
	FlagRateLimit = "rate-limit"
	FlagRateBurst = "rate-burst"
	FlagLogLevel  = "log-level"
)

// BindFlags registers the client flags on fs. The defaults shown in help
// come from LoadDefaults; only flags the user actually sets override the
// file and environment.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.StringP(FlagServer, "a", d.ServerURL, "base URL of the NutriNow backend")
	fs.String(FlagDB, d.DBPath, "path of the local state database")
	fs.Duration(FlagTimeout, d.RequestTimeout, "timeout of a single backend request")
	fs.Float64(FlagRateLimit, d.RateLimit, "maximum backend requests per second (0 disables)")
	fs.Int(FlagRateBurst, d.RateBurst, "burst size of the request rate limiter")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn or error")
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagServer) {
		if cfg.ServerURL, err = fs.GetString(FlagServer); err != nil {
			return err
		}
	}
	if fs.Changed(FlagDB) {
		if cfg.DBPath, err = fs.GetString(FlagDB); err != nil {
			return err
		}
	}
	if fs.Changed(FlagTimeout) {
		if cfg.RequestTimeout, err = fs.GetDuration(FlagTimeout); err != nil {
			return err
		}
	}
	if fs.Changed(FlagRateLimit) {
		if cfg.RateLimit, err = fs.GetFloat64(FlagRateLimit); err != nil {
			return err
		}
	}
	if fs.Changed(FlagRateBurst) {
		if cfg.RateBurst, err = fs.GetInt(FlagRateBurst); err != nil {
			return err
		}
	}
	if fs.Changed(FlagLogLevel) {
		if cfg.LogLevel, err = fs.GetString(FlagLogLevel); err != nil {
			return err
		}
	}
	return nil
}
