package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sealdrop/internal/flagx"
)

// FlagNames lists the flags owned by the config loader. The command parser
// declares the same flags so it accepts them too.
var FlagNames = []string{
	"-s", "--server",
	"-d", "--db",
	"-t", "--timeout",
	"-l", "--log-level",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-s, --server string     base URL of the server
//	-d, --db string         path of the local database
//	-t, --timeout int       request timeout in seconds
//	-l, --log-level string  log level
//
// os.Args is filtered with flagx.FilterArgs so subcommands and their own
// flags do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], FlagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "base URL of the server")
	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "base URL of the server")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the local database")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path of the local database")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(requestTimeout, "timeout", *requestTimeout, "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
