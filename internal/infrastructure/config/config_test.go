package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("log level defaults to info", func(t *testing.T) {
		os.Unsetenv("LOG_LEVEL")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("log level binds from the environment", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("server and session defaults apply", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
		assert.Equal(t, 10, cfg.Kroger.SearchLimit)
	})
}
