package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tokenexpiry/internal/flagx"
)

// parseJson overlays values from the JSON file named by -c or -config.
// Keys missing from the file leave the current values untouched. Without
// the flag nothing is loaded. An unreadable file or invalid JSON panics.
//
// Example file:
//
//	{
//	  "driver": "postgres",
//	  "db_host": "db.internal",
//	  "db_name": "accounting_db",
//	  "db_user": "sweeper",
//	  "migrate": false
//	}
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, config); err != nil {
		panic(err)
	}
}
