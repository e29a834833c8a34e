// Package config handles configuration for the expiration sweeper: defaults,
// an optional JSON file, TOKENEXPIRY_* environment variables and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
)

// EnvPrefix prefixes every environment variable the sweeper reads.
const EnvPrefix = "tokenexpiry"

// Config holds runtime settings for one sweeper run.
//
// Fields:
//   - Driver: mysql, postgres or sqlite.
//   - DBHost / DBPort / DBName / DBUser / DBPassword: discrete connection
//     settings. DBPort 0 means the driver's default port. For sqlite DBName is
//     the database file path.
//   - DatabaseDSN: full driver DSN; when set it replaces the discrete fields.
//   - Migrate: apply the embedded schema migrations before sweeping.
//   - Atomic: insert all expired records in one transaction.
//   - DryRun: report candidates without inserting anything.
//   - LogLevel / LogFormat: diagnostic log settings (json or text on stderr).
//   - PushgatewayURL / MetricsJob: push run metrics when the URL is set.
type Config struct {
	Driver         string `json:"driver"          envconfig:"DRIVER"`
	DBHost         string `json:"db_host"         envconfig:"DB_HOST"`
	DBPort         uint   `json:"db_port"         envconfig:"DB_PORT"`
	DBName         string `json:"db_name"         envconfig:"DB_NAME"`
	DBUser         string `json:"db_user"         envconfig:"DB_USER"`
	DBPassword     string `json:"db_password"     envconfig:"DB_PASSWORD"`
	DatabaseDSN    string `json:"database_dsn"    envconfig:"DATABASE_DSN"`
	Migrate        bool   `json:"migrate"         envconfig:"MIGRATE"`
	Atomic         bool   `json:"atomic"          envconfig:"ATOMIC"`
	DryRun         bool   `json:"dry_run"         envconfig:"DRY_RUN"`
	LogLevel       string `json:"log_level"       envconfig:"LOG_LEVEL"`
	LogFormat      string `json:"log_format"      envconfig:"LOG_FORMAT"`
	PushgatewayURL string `json:"pushgateway_url" envconfig:"PUSHGATEWAY_URL"`
	MetricsJob     string `json:"metrics_job"     envconfig:"METRICS_JOB"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Driver = dbx.DriverMySQL
	c.DBHost = "localhost"
	c.DBPort = 0
	c.DBName = "accounting_db"
	c.DBUser = "tokenexpiry"
	c.DBPassword = ""
	c.DatabaseDSN = ""
	c.Migrate = false
	c.Atomic = false
	c.DryRun = false
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.PushgatewayURL = ""
	c.MetricsJob = "tokenexpiry"
}

// LoadConfig builds a Config from defaults, then overlays the JSON file,
// the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings that cannot produce a working run.
func (c *Config) Validate() error {
	if _, err := dbx.DialectFor(c.Driver); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}

	if c.DatabaseDSN != "" {
		return nil
	}
	if c.Driver == dbx.DriverSQLite {
		if c.DBName == "" {
			return errors.New("sqlite requires a database file name")
		}
		return nil
	}
	if c.DBHost == "" {
		return errors.New("database host is required")
	}
	return nil
}

// Port returns DBPort or the default port of the configured driver.
func (c *Config) Port() uint {
	if c.DBPort != 0 {
		return c.DBPort
	}
	switch c.Driver {
	case dbx.DriverPostgres:
		return 5432
	default:
		return 3306
	}
}

// Addr describes the connection target for logs and errors without
// exposing credentials.
func (c *Config) Addr() string {
	switch {
	case c.DatabaseDSN != "":
		return "(dsn)"
	case c.Driver == dbx.DriverSQLite:
		return c.DBName
	default:
		return net.JoinHostPort(c.DBHost, strconv.FormatUint(uint64(c.Port()), 10))
	}
}
