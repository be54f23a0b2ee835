// Package config loads runtime configuration for the NutriNow client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config.
//  3. Environment variables prefixed with NUTRINOW_.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://localhost:5000",
//	  "db_path": "/home/ana/.config/nutrinow/nutrinow.db",
//	  "request_timeout": "30s",
//	  "rate_limit": 5,
//	  "rate_burst": 10,
//	  "log_level": "warn"
//	}
//
// # Environment
//
//	NUTRINOW_SERVER_URL, NUTRINOW_DB_PATH, NUTRINOW_REQUEST_TIMEOUT,
//	NUTRINOW_RATE_LIMIT, NUTRINOW_RATE_BURST, NUTRINOW_LOG_LEVEL
package config
