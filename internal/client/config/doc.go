// Package config loads runtime configuration for the sealdrop CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   base URL of the server
//	-d string   path of the local SQLite database
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_url": "https://files.example.com",
//	  "db_path": "/home/alice/.sealdrop.db",
//	  "request_timeout": "30s",
//	  "log_level": "warn"
//	}
package config
