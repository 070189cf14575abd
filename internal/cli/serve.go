package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/classify-api/internal/config"
	"github.com/Brownie44l1/classify-api/internal/handlers"
	"github.com/Brownie44l1/classify-api/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default)",
	Long: `Loads the vocabulary and the model, then serves:

  GET  /api/classify?url=...&n=3   classify a remote image
  POST /api/classify               classify an upload in form field "file"
  GET  /api/classes                class labels, sorted
  GET  /ping                       liveness
  GET  /                           landing page`,
	Example: `  # Serve with defaults on port 5000
  classify-api

  # Serve a different model on port 8080
  PORT=8080 IMGCLS_MODEL_PATH=/srv/models/dogs.onnx classify-api serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	config.Watch(cfgFile, func(c *config.Config) {
		logger.SetLevel(c.Log.Level)
		logger.Info("config reloaded", logging.String("log_level", c.Log.Level))
	}, func(err error) {
		logger.Warn("ignoring invalid config change", logging.Err(err))
	})

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("startup failed", logging.Err(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close model", logging.Err(err))
		}
	}()

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	h := handlers.NewHandler(handlers.Deps{
		Pipeline:       a.pipeline,
		Loader:         a.loader,
		Vocabulary:     a.vocab,
		Metrics:        a.metrics,
		Logger:         logger,
		UploadMaxBytes: cfg.Upload.MaxBytes,
		MaxTopN:        cfg.Inference.MaxTopN,
	})
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: handlers.NewRouter(h, handlers.RouterOptions{
			CORSOrigin:  cfg.Server.CORSOrigin,
			MetricsPath: metricsPath,
			Metrics:     a.metrics,
			Logger:      logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			logging.String("addr", srv.Addr),
			logging.String("architecture", a.handle.Architecture()),
			logging.Int("classes", a.vocab.Len()),
			logging.String("metrics", metricsPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", logging.Duration("timeout", cfg.Server.ShutdownTimeout))
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", logging.Err(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
