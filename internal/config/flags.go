package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/tokenexpiry/internal/flagx"
)

// parseFlags overlays values given on the command line. All flags are
// optional; the sweeper runs with no arguments at all.
//
//	-t string   driver: mysql, postgres or sqlite
//	-a string   database host
//	-P uint     database port (0 = driver default)
//	-n string   database name (file path for sqlite)
//	-u string   database user
//	-p string   database password
//	-d string   full DSN, overrides the discrete settings
//	-m          apply schema migrations before sweeping
//	-atomic     insert all records in a single transaction
//	-dry-run    report candidates only
//	-l string   log level (debug, info, warn, error)
//	-f string   log format (json, text)
//	-g string   Pushgateway URL
//	-j string   Pushgateway job name
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-t", "-a", "-P", "-n", "-u", "-p", "-d", "-m", "-atomic", "-dry-run", "-l", "-f", "-g", "-j",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Driver, "t", config.Driver, "database driver (mysql, postgres, sqlite)")
	fs.StringVar(&config.DBHost, "a", config.DBHost, "database host")
	fs.UintVar(&config.DBPort, "P", config.DBPort, "database port")
	fs.StringVar(&config.DBName, "n", config.DBName, "database name")
	fs.StringVar(&config.DBUser, "u", config.DBUser, "database user")
	fs.StringVar(&config.DBPassword, "p", config.DBPassword, "database password")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.BoolVar(&config.Migrate, "m", config.Migrate, "run schema migrations")
	fs.BoolVar(&config.Atomic, "atomic", config.Atomic, "insert expired records in one transaction")
	fs.BoolVar(&config.DryRun, "dry-run", config.DryRun, "report candidates without inserting")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.PushgatewayURL, "g", config.PushgatewayURL, "Pushgateway URL")
	fs.StringVar(&config.MetricsJob, "j", config.MetricsJob, "Pushgateway job name")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
