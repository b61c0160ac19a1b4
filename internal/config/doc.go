// Package config loads the sunface configuration file shared by the display
// (sunface) and the controller (facectl).
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/sunface/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	role            = "display"            # or "primary"
//	broker          = "tcp://10.0.0.5:1883" # empty: in-process hub
//	topic_prefix    = "sunface"
//	client_id       = ""                   # empty: generated per run
//	connect_timeout = "30s"
//	asset_timeout   = "1s"
//	weather_api     = "127.0.0.1:7490"
//	log_dir         = "~/.local/share/sunface/logs"
//	log_level       = "info"
//	log_format      = "json"               # or "text"
//
// Every field is optional. Strings are trimmed; log_dir gets tilde
// expansion. Durations use time.ParseDuration syntax and must be positive.
//
// # Error Handling
//
// Missing config files are not an error. Load fails on unreadable files,
// TOML syntax errors, an unknown role and invalid durations; all of the
// latter carry a "parse config" prefix.
package config
