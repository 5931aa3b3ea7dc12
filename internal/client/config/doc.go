// Package config loads runtime configuration for the Atlist CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config.
//  3. Command-line flags bound with BindFlags, which override earlier values.
//
// # JSON schema
//
// request_timeout accepts a duration string or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "functions_url": "https://example.functions.dev/v1",
//	  "database_dsn": "atlist.db",
//	  "request_timeout": "10s",
//	  "publishable_key": "pk_live_...",
//	  "verbose": false
//	}
package config
