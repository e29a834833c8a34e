package config

import "github.com/kelseyhightower/envconfig"

// parseEnv overlays TOKENEXPIRY_* variables, e.g. TOKENEXPIRY_DB_HOST or
// TOKENEXPIRY_DB_PASSWORD. Unset variables leave the current values as they
// are. Malformed values (a non-numeric port, a non-boolean flag) panic.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
