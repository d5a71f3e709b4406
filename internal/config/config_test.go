package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "localbid")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 10.0, cfg.WSSendRate)
	assert.Equal(t, 20, cfg.WSSendBurst)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadPostgresDefaultPort(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5432", cfg.DBPort)
}

func TestLoadMissingRequired(t *testing.T) {
	for _, k := range []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_NAME"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	_, err := Load()
	assert.Error(t, err)
}
