package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/atlist/internal/flagx"
	"github.com/dmitrijs2005/atlist/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep their current value.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	FunctionsURL       *string         `json:"functions_url"`
	DatabaseDSN        *string         `json:"database_dsn"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	PublishableKey     *string         `json:"publishable_key"`
	Verbose            *bool           `json:"verbose"`
}

// parseJson overlays cfg with the JSON file named by -c/--config. It panics
// on read or decode errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	applyJson(cfg, data)
}

func applyJson(cfg *Config, data []byte) {
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.FunctionsURL != nil {
		cfg.FunctionsURL = *jc.FunctionsURL
	}
	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PublishableKey != nil {
		cfg.PublishableKey = *jc.PublishableKey
	}
	if jc.Verbose != nil {
		cfg.Verbose = *jc.Verbose
	}
}
