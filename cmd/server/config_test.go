package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./configs", cfg.ConfigDir)
	assert.True(t, cfg.LoadLatestSnapshot)
	assert.True(t, cfg.EnableAdminHTTP)
	assert.False(t, cfg.DisableDB)
	assert.Equal(t, zerolog.InfoLevel, cfg.logLevel())
	assert.False(t, cfg.Mirror.enabled())
}

func TestConfigMirrorFromEnv(t *testing.T) {
	t.Setenv("CHRONICLES_MIRROR_BUCKET", "chronicles-backups")
	t.Setenv("CHRONICLES_MIRROR_ENDPOINT", "acct.r2.cloudflarestorage.com")
	t.Setenv("CHRONICLES_MIRROR_WORKERS", "3")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.True(t, cfg.Mirror.enabled())
	assert.Equal(t, "acct.r2.cloudflarestorage.com", cfg.Mirror.Endpoint)
	assert.Equal(t, 3, cfg.Mirror.Workers)
	assert.Equal(t, 256, cfg.Mirror.Queue)
}

func TestConfigEnvThenFlags(t *testing.T) {
	t.Setenv("CHRONICLES_ADDR", ":9000")
	t.Setenv("CHRONICLES_DATA", "/var/lib/chronicles")
	t.Setenv("CHRONICLES_DISABLE_DB", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := loadConfig([]string{"-addr", ":9100"})
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "/var/lib/chronicles", cfg.DataDir)
	assert.True(t, cfg.DisableDB)
	assert.Equal(t, zerolog.DebugLevel, cfg.logLevel())
}

func TestConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("CHRONICLES_DISABLE_DB", "maybe")
	_, err := loadConfig(nil)
	assert.Error(t, err)
}

func TestUnknownLogLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, config{LogLevel: "loud"}.logLevel())
}
