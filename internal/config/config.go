// Package config loads the service configuration from an optional YAML file
// and IMGCLS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Brownie44l1/classify-api/internal/logging"
)

// Config is the full service configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Model       ModelConfig       `mapstructure:"model"`
	Inference   InferenceConfig   `mapstructure:"inference"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Upload      UploadConfig      `mapstructure:"upload"`
	Image       ImageConfig       `mapstructure:"image"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Log         logging.Config    `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
}

// ModelConfig points at the startup artifacts.
type ModelConfig struct {
	VocabularyPath    string `mapstructure:"vocabulary_path"`
	Path              string `mapstructure:"path"`
	MetadataPath      string `mapstructure:"metadata_path"`
	Architecture      string `mapstructure:"architecture"`
	ImageSize         int    `mapstructure:"image_size"`
	SharedLibraryPath string `mapstructure:"shared_library_path"`
	// PoolSize is the number of ONNX sessions, i.e. the number of images
	// scored in parallel.
	PoolSize       int `mapstructure:"pool_size"`
	IntraOpThreads int `mapstructure:"intra_op_threads"`
}

type InferenceConfig struct {
	TopN    int `mapstructure:"top_n"`
	MaxTopN int `mapstructure:"max_top_n"`
}

// FetchConfig controls retrieval of images by URL. A zero Timeout disables
// the deadline.
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	UserAgent string        `mapstructure:"user_agent"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// ImageConfig limits decoding for every image source.
type ImageConfig struct {
	MaxPixels int64 `mapstructure:"max_pixels"`
}

// ObjectStoreConfig enables s3:// image URLs when Endpoint is set.
type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Validate checks the fully-defaulted configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Model.VocabularyPath == "" {
		errs = append(errs, "model.vocabulary_path is required")
	}
	if c.Model.Path == "" {
		errs = append(errs, "model.path is required")
	}
	if c.Model.ImageSize <= 0 {
		errs = append(errs, "model.image_size must be positive")
	}
	if c.Model.PoolSize <= 0 {
		errs = append(errs, "model.pool_size must be positive")
	}
	if c.Inference.TopN <= 0 {
		errs = append(errs, "inference.top_n must be positive")
	}
	if c.Inference.MaxTopN < c.Inference.TopN {
		errs = append(errs, "inference.max_top_n must be >= inference.top_n")
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, "fetch.timeout must not be negative")
	}
	if c.Fetch.MaxBytes <= 0 || c.Upload.MaxBytes <= 0 {
		errs = append(errs, "fetch.max_bytes and upload.max_bytes must be positive")
	}
	if c.Image.MaxPixels <= 0 {
		errs = append(errs, "image.max_pixels must be positive")
	}
	if c.ObjectStore.Endpoint != "" && (c.ObjectStore.AccessKey == "") != (c.ObjectStore.SecretKey == "") {
		errs = append(errs, "object_store.access_key and object_store.secret_key must be set together")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
