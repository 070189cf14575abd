package config

import "time"

const (
	// DefaultPort matches the port the classifier has always listened on.
	DefaultPort = 5000

	DefaultVocabularyPath = "models/classes.txt"
	DefaultModelPath      = "models/final.onnx"
	DefaultMetadataPath   = "models/model_metadata.json"
	DefaultArchitecture   = "resnet50"
	DefaultImageSize      = 224
	DefaultPoolSize       = 1

	// DefaultTopN is the number of predictions returned when the caller
	// does not ask for a specific count.
	DefaultTopN    = 3
	DefaultMaxTopN = 100

	DefaultFetchTimeout   = 30 * time.Second
	DefaultFetchMaxBytes  = 20 << 20
	DefaultUploadMaxBytes = 10 << 20
	DefaultUserAgent      = "classify-api/1.0"

	// DefaultMaxPixels caps width*height of any image before decoding.
	DefaultMaxPixels = 40_000_000

	DefaultMetricsNamespace = "classify"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills zero-value fields. Explicit settings always win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 2 * time.Minute
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}

	if cfg.Model.VocabularyPath == "" {
		cfg.Model.VocabularyPath = DefaultVocabularyPath
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = DefaultModelPath
	}
	if cfg.Model.MetadataPath == "" {
		cfg.Model.MetadataPath = DefaultMetadataPath
	}
	if cfg.Model.Architecture == "" {
		cfg.Model.Architecture = DefaultArchitecture
	}
	if cfg.Model.ImageSize == 0 {
		cfg.Model.ImageSize = DefaultImageSize
	}
	if cfg.Model.PoolSize == 0 {
		cfg.Model.PoolSize = DefaultPoolSize
	}

	if cfg.Inference.TopN == 0 {
		cfg.Inference.TopN = DefaultTopN
	}
	if cfg.Inference.MaxTopN == 0 {
		cfg.Inference.MaxTopN = DefaultMaxTopN
	}

	if cfg.Fetch.MaxBytes == 0 {
		cfg.Fetch.MaxBytes = DefaultFetchMaxBytes
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = DefaultUploadMaxBytes
	}

	if cfg.Image.MaxPixels == 0 {
		cfg.Image.MaxPixels = DefaultMaxPixels
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Default returns a Config with every default applied. Unlike ApplyDefaults
// it also enables the fields whose zero value is meaningful: the fetch
// deadline and the metrics endpoint.
func Default() *Config {
	cfg := &Config{}
	cfg.Fetch.Timeout = DefaultFetchTimeout
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
