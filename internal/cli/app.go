package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/classify-api/internal/config"
	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/imageload"
	"github.com/Brownie44l1/classify-api/internal/inference"
	"github.com/Brownie44l1/classify-api/internal/logging"
	"github.com/Brownie44l1/classify-api/internal/metrics"
	"github.com/Brownie44l1/classify-api/internal/model"
	"github.com/Brownie44l1/classify-api/internal/vocab"
)

// app is everything a command needs once startup has succeeded.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	vocab    *vocab.Vocabulary
	handle   *model.Handle
	metrics  *metrics.Metrics
	loader   *imageload.Loader
	pipeline *inference.Pipeline
}

// setup loads configuration and builds the logger.
func setup() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	resolvePaths(cfg)

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// newApp loads the vocabulary and the model and wires the pipeline.
func newApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	logger.Info("loading vocabulary", logging.String("path", cfg.Model.VocabularyPath))
	v, err := vocab.Load(cfg.Model.VocabularyPath)
	if err != nil {
		return nil, err
	}

	logger.Info("loading model",
		logging.String("path", cfg.Model.Path),
		logging.String("metadata", cfg.Model.MetadataPath),
		logging.String("architecture", cfg.Model.Architecture),
	)
	handle, err := model.Load(v, model.LoadOptions{
		ModelPath:         cfg.Model.Path,
		MetadataPath:      cfg.Model.MetadataPath,
		Architecture:      cfg.Model.Architecture,
		ImageSize:         cfg.Model.ImageSize,
		SharedLibraryPath: cfg.Model.SharedLibraryPath,
		PoolSize:          cfg.Model.PoolSize,
		IntraOpThreads:    cfg.Model.IntraOpThreads,
	})
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(metrics.Config{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		})
	}

	var objects imageload.ObjectGetter
	if cfg.ObjectStore.Endpoint != "" {
		store, err := imageload.NewMinioStore(imageload.MinioConfig{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			UseSSL:    cfg.ObjectStore.UseSSL,
			Region:    cfg.ObjectStore.Region,
		})
		if err != nil {
			handle.Close()
			return nil, errs.Wrap(err, errs.FatalStartup, "connect object store %s", cfg.ObjectStore.Endpoint)
		}
		objects = store
	}

	loader := imageload.New(imageload.Options{
		Timeout:   cfg.Fetch.Timeout,
		MaxBytes:  cfg.Fetch.MaxBytes,
		UserAgent: cfg.Fetch.UserAgent,
		MaxPixels: cfg.Image.MaxPixels,
		Objects:   objects,
		Logger:    logger,
	})
	logger.Info("image loader ready",
		logging.Duration("fetch_timeout", cfg.Fetch.Timeout),
		logging.Int64("max_pixels", cfg.Image.MaxPixels),
		logging.Bool("object_store", objects != nil),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		vocab:   v,
		handle:  handle,
		metrics: m,
		loader:  loader,
		pipeline: inference.New(handle, inference.Options{
			TopN:          cfg.Inference.TopN,
			MaxConcurrent: cfg.Model.PoolSize,
			Metrics:       m,
			Logger:        logger,
		}),
	}, nil
}

func (a *app) Close() error {
	return a.handle.Close()
}

// projectRoot is the working directory, or the repository root when the
// binary is started from cmd/server with go run.
func projectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if filepath.Base(wd) == "server" && filepath.Base(filepath.Dir(wd)) == "cmd" {
		return filepath.Join(wd, "..", "..")
	}
	return wd
}

// resolvePaths anchors relative artifact paths at projectRoot.
func resolvePaths(cfg *config.Config) {
	root := projectRoot()
	for _, p := range []*string{&cfg.Model.VocabularyPath, &cfg.Model.Path, &cfg.Model.MetadataPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}
