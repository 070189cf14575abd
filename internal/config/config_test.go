package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, DefaultVocabularyPath, cfg.Model.VocabularyPath)
	assert.Equal(t, DefaultImageSize, cfg.Model.ImageSize)
	assert.Equal(t, DefaultTopN, cfg.Inference.TopN)
	assert.Equal(t, DefaultFetchTimeout, cfg.Fetch.Timeout)
	assert.Equal(t, int64(DefaultMaxPixels), cfg.Image.MaxPixels)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
model:
  path: /srv/models/dogs.onnx
  image_size: 299
  pool_size: 4
inference:
  top_n: 5
fetch:
  timeout: 0s
log:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/models/dogs.onnx", cfg.Model.Path)
	assert.Equal(t, 299, cfg.Model.ImageSize)
	assert.Equal(t, 4, cfg.Model.PoolSize)
	assert.Equal(t, 5, cfg.Inference.TopN)
	assert.Equal(t, time.Duration(0), cfg.Fetch.Timeout)
	assert.Equal(t, "console", cfg.Log.Format)
	// untouched keys keep defaults
	assert.Equal(t, DefaultMetadataPath, cfg.Model.MetadataPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IMGCLS_MODEL_VOCABULARY_PATH", "/data/classes.json")
	t.Setenv("IMGCLS_FETCH_TIMEOUT", "5s")
	t.Setenv("IMGCLS_METRICS_ENABLED", "false")
	t.Setenv("IMGCLS_IMAGE_MAX_PIXELS", "1000000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/classes.json", cfg.Model.VocabularyPath)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, int64(1_000_000), cfg.Image.MaxPixels)
}

func TestLoad_PortVariable(t *testing.T) {
	t.Setenv("PORT", "8081")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)

	t.Setenv("IMGCLS_SERVER_PORT", "7000")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_InvalidPortVariable(t *testing.T) {
	t.Setenv("PORT", "http")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"top_n", func(c *Config) { c.Inference.TopN = -1 }},
		{"max_top_n", func(c *Config) { c.Inference.MaxTopN = 1; c.Inference.TopN = 3 }},
		{"pool", func(c *Config) { c.Model.PoolSize = -2 }},
		{"timeout", func(c *Config) { c.Fetch.Timeout = -time.Second }},
		{"object store keys", func(c *Config) {
			c.ObjectStore.Endpoint = "localhost:9000"
			c.ObjectStore.AccessKey = "minio"
		}},
		{"max pixels", func(c *Config) { c.Image.MaxPixels = -1 }},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestWatch_UnreadableFile(t *testing.T) {
	var got error
	Watch(filepath.Join(t.TempDir(), "gone.yaml"), func(*Config) {
		t.Fatal("onChange must not run for a missing file")
	}, func(err error) { got = err })

	require.Error(t, got)
	assert.Contains(t, got.Error(), "gone.yaml")
}
