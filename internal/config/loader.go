package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of every environment override, e.g.
// IMGCLS_MODEL_PATH or IMGCLS_FETCH_TIMEOUT.
const envPrefix = "IMGCLS"

// newViper builds a Viper instance that knows every key so that
// environment overrides apply even without a config file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	defaults := map[string]interface{}{
		"server.port":               d.Server.Port,
		"server.read_timeout":       d.Server.ReadTimeout,
		"server.write_timeout":      d.Server.WriteTimeout,
		"server.idle_timeout":       d.Server.IdleTimeout,
		"server.shutdown_timeout":   d.Server.ShutdownTimeout,
		"server.cors_origin":        d.Server.CORSOrigin,
		"model.vocabulary_path":     d.Model.VocabularyPath,
		"model.path":                d.Model.Path,
		"model.metadata_path":       d.Model.MetadataPath,
		"model.architecture":        d.Model.Architecture,
		"model.image_size":          d.Model.ImageSize,
		"model.shared_library_path": "",
		"model.pool_size":           d.Model.PoolSize,
		"model.intra_op_threads":    0,
		"inference.top_n":           d.Inference.TopN,
		"inference.max_top_n":       d.Inference.MaxTopN,
		"fetch.timeout":             d.Fetch.Timeout,
		"fetch.max_bytes":           d.Fetch.MaxBytes,
		"fetch.user_agent":          d.Fetch.UserAgent,
		"upload.max_bytes":          d.Upload.MaxBytes,
		"image.max_pixels":          d.Image.MaxPixels,
		"object_store.endpoint":     "",
		"object_store.access_key":   "",
		"object_store.secret_key":   "",
		"object_store.use_ssl":      false,
		"object_store.region":       "",
		"metrics.enabled":           d.Metrics.Enabled,
		"metrics.namespace":         d.Metrics.Namespace,
		"metrics.path":              d.Metrics.Path,
		"log.level":                 d.Log.Level,
		"log.format":                d.Log.Format,
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	return v
}

// Load reads the YAML file at path (skipped when path is empty), merges
// IMGCLS_* overrides and the conventional PORT variable, applies defaults
// and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// PORT is honoured unless the prefixed variable is set.
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_SERVER_PORT") == "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch re-reads path whenever it changes and hands the new Config to
// onChange. Invalid edits are reported through onError and otherwise
// ignored. A file that cannot be read is reported and not watched. Only settings that are safe to change at runtime, such as the
// log level, should be applied by the callback.
func Watch(path string, onChange func(*Config), onError func(error)) {
	if path == "" {
		return
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if onError != nil {
			onError(fmt.Errorf("config: read %q: %w", path, err))
		}
		return
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
