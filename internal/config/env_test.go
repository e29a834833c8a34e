package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Run("overlays set variables only", func(t *testing.T) {
		t.Setenv("TOKENEXPIRY_DRIVER", "postgres")
		t.Setenv("TOKENEXPIRY_DB_PORT", "6432")
		t.Setenv("TOKENEXPIRY_DB_PASSWORD", "from-env")
		t.Setenv("TOKENEXPIRY_ATOMIC", "true")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "postgres", cfg.Driver)
		assert.Equal(t, uint(6432), cfg.DBPort)
		assert.Equal(t, "from-env", cfg.DBPassword)
		assert.True(t, cfg.Atomic)
		assert.Equal(t, "localhost", cfg.DBHost, "unset variables keep defaults")
		assert.Equal(t, "accounting_db", cfg.DBName)
	})

	t.Run("malformed value panics", func(t *testing.T) {
		t.Setenv("TOKENEXPIRY_DB_PORT", "not-a-port")

		cfg := &Config{}
		require.Panics(t, func() { parseEnv(cfg) })
	})
}
