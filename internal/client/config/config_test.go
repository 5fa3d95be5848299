package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.RemoteURL)
	assert.Equal(t, "tourcheck.db", c.DBPath)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 2500*time.Millisecond, c.PollInterval)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, 10*time.Second, c.RetryInterval)
	assert.Equal(t, ProbeHTTP, c.Probe)
}

func TestLoadConfig_DefaultsWithoutArgs(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"tourcheck"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.RemoteURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.PollInterval)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"remote_url":    "https://json.example",
		"poll_interval": "1s",
	})
	os.Args = []string{"tourcheck", "-c", path, "-r", "https://flag.example"}

	cfg := LoadConfig()

	assert.Equal(t, "https://flag.example", cfg.RemoteURL)
	assert.Equal(t, time.Second, cfg.PollInterval)
}
