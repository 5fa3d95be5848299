package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"grpc_addr":        ":6000",
		"storage":          "s3",
		"s3_base_endpoint": "http://minio:9000",
		"body_limit":       4096,
		"shutdown_timeout": "1s",
	})

	t.Run("overlays present keys", func(t *testing.T) {
		os.Args = []string{"server", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, ":6000", cfg.GRPCAddr)
		assert.Equal(t, StorageS3, cfg.Storage)
		assert.Equal(t, "http://minio:9000", cfg.S3BaseEndpoint)
		assert.Equal(t, 4096, cfg.BodyLimit)
		assert.Equal(t, time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		os.Args = []string{"server"}

		cfg := &Config{HTTPAddr: ":1"}
		parseJson(cfg)

		assert.Equal(t, ":1", cfg.HTTPAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
		os.Args = []string{"server", "-c", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
