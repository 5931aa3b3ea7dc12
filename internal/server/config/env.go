package config

import (
	"github.com/kelseyhightower/envconfig"
)

// EnvConfig lists the environment variables the server honours. Unset
// variables leave the pointer nil.
type EnvConfig struct {
	EndpointAddrGRPC *string `envconfig:"GRPC_ADDR"`
	MetricsAddr      *string `envconfig:"METRICS_ADDR"`
	DatabaseDSN      *string `envconfig:"DATABASE_DSN"`
	SecretKey        *string `envconfig:"SECRET_KEY"`
	TicketRateLimit  *int    `envconfig:"TICKET_RATE_LIMIT"`
	SeedCatalog      *bool   `envconfig:"SEED_CATALOG"`
}

const envPrefix = "ATLIST"

// parseEnv overlays ATLIST_* variables. It panics on values that do not
// parse, like the other layers.
func parseEnv(config *Config) {
	if err := applyEnv(config, envPrefix); err != nil {
		panic(err)
	}
}

func applyEnv(config *Config, prefix string) error {
	var e EnvConfig
	if err := envconfig.Process(prefix, &e); err != nil {
		return err
	}

	if e.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *e.EndpointAddrGRPC
	}
	if e.MetricsAddr != nil {
		config.MetricsAddr = *e.MetricsAddr
	}
	if e.DatabaseDSN != nil {
		config.DatabaseDSN = *e.DatabaseDSN
	}
	if e.SecretKey != nil {
		config.SecretKey = *e.SecretKey
	}
	if e.TicketRateLimit != nil {
		config.TicketRateLimit = *e.TicketRateLimit
	}
	if e.SeedCatalog != nil {
		config.SeedCatalog = *e.SeedCatalog
	}
	return nil
}
