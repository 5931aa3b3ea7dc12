package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/atlist/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   metrics bind address, empty to disable
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-r int      support tickets per minute per identity
//	-seed       import the bundled catalog into an empty catalog table
//
// os.Args is filtered with flagx.FilterArgsWithBools first so foreign
// flags (-c, test flags) do not abort parsing.
func parseFlags(config *Config) {
	parseArgs(config, os.Args[1:])
}

func parseArgs(config *Config, argv []string) {
	args := flagx.FilterArgsWithBools(argv,
		[]string{"-a", "-m", "-d", "-s", "-r"},
		[]string{"-seed", "--seed"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for /metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.IntVar(&config.TicketRateLimit, "r", config.TicketRateLimit, "support tickets per minute per user")
	fs.BoolVar(&config.SeedCatalog, "seed", config.SeedCatalog, "seed the website catalog when empty")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
