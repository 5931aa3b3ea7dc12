package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/atlist/internal/flagx"
)

// JsonConfig is the on-disk shape of the server configuration. Pointer
// fields tell a missing key apart from a zero value.
type JsonConfig struct {
	EndpointAddrGRPC *string `json:"endpoint_addr_grpc"`
	MetricsAddr      *string `json:"metrics_addr"`
	DatabaseDSN      *string `json:"database_dsn"`
	SecretKey        *string `json:"secret_key"`
	TicketRateLimit  *int    `json:"ticket_rate_limit"`
	SeedCatalog      *bool   `json:"seed_catalog"`
}

// parseJson loads the file named by -c / -config, if any, into config.
// It panics when the file cannot be read or decoded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := applyJson(config, file); err != nil {
		panic(err)
	}
}

func applyJson(config *Config, data []byte) error {
	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	if c.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *c.EndpointAddrGRPC
	}
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.TicketRateLimit != nil {
		config.TicketRateLimit = *c.TicketRateLimit
	}
	if c.SeedCatalog != nil {
		config.SeedCatalog = *c.SeedCatalog
	}
	return nil
}
