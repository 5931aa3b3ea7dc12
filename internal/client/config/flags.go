package config

import (
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// BindFlags registers the CLI flags on fs, using the current values of cfg
// as defaults so that flags override JSON.
//
//	-a, --addr string       record store address
//	-f, --functions string  serverless functions base URL
//	-d, --db string         local database file
//	-t, --timeout int       request timeout in seconds
//	-k, --key string        publishable API key
//	-v, --verbose           debug logging
//	-c, --config string     JSON config file (read before flag parsing)
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.ServerEndpointAddr, "addr", "a", cfg.ServerEndpointAddr, "address and port of the record store")
	fs.StringVarP(&cfg.FunctionsURL, "functions", "f", cfg.FunctionsURL, "base URL of the serverless functions")
	fs.StringVarP(&cfg.DatabaseDSN, "db", "d", cfg.DatabaseDSN, "local database file")
	fs.VarP((*seconds)(&cfg.RequestTimeout), "timeout", "t", "request timeout (in seconds)")
	fs.StringVarP(&cfg.PublishableKey, "key", "k", cfg.PublishableKey, "publishable API key")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "verbose logging")

	var jsonPath string
	fs.StringVarP(&jsonPath, "config", "c", "", "path to JSON config file")
}

// seconds is a time.Duration flag given as whole seconds.
type seconds time.Duration

func (s *seconds) String() string {
	return strconv.Itoa(int(time.Duration(*s) / time.Second))
}

func (s *seconds) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*s = seconds(time.Duration(n) * time.Second)
	return nil
}

func (s *seconds) Type() string { return "int" }
