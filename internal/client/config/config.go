package config

import "time"

// Config holds runtime settings for the Atlist CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the record store gRPC endpoint.
//   - FunctionsURL: base URL of the serverless functions.
//   - DatabaseDSN: path of the local SQLite replica.
//   - RequestTimeout: per-call deadline for remote requests.
//   - PublishableKey: public API key sent to the functions endpoint.
//   - Verbose: log debug output to stderr.
type Config struct {
	ServerEndpointAddr string
	FunctionsURL       string
	DatabaseDSN        string
	RequestTimeout     time.Duration
	PublishableKey     string
	Verbose            bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.FunctionsURL = "http://127.0.0.1:54321/functions/v1"
	c.DatabaseDSN = "atlist.db"
	c.RequestTimeout = 10 * time.Second
	c.PublishableKey = ""
	c.Verbose = false
}

// LoadConfig constructs a Config from defaults overlaid with the JSON file
// named by -c/--config, if any. Command-line flags are applied later by
// the command tree through BindFlags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}
