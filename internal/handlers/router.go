// Package handlers is the HTTP surface of the classifier.
package handlers

import (
	"net/http"

	"github.com/Brownie44l1/classify-api/internal/logging"
	"github.com/Brownie44l1/classify-api/internal/metrics"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigin string
	// MetricsPath serves Prometheus metrics when non-empty and Metrics is set.
	MetricsPath string
	Metrics     *metrics.Metrics
	Logger      logging.Logger
}

// NewRouter wires h onto its routes:
//
//	GET  /api/classify?url=...   classify a remote image
//	POST /api/classify           classify an upload in field "file"
//	GET  /api/classes            vocabulary, sorted
//	GET  /ping                   liveness, "pong"
//	GET  /                       landing page
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/classify", h.Classify)
	mux.HandleFunc("POST /api/classify", h.Classify)
	mux.HandleFunc("GET /api/classes", h.Classes)
	mux.HandleFunc("GET /ping", h.Ping)
	mux.HandleFunc("GET /{$}", h.Index)
	if opts.MetricsPath != "" && opts.Metrics != nil {
		mux.Handle("GET "+opts.MetricsPath, opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = observe(opts.Logger.Named("access"), opts.Metrics, handler)
	handler = enableCORS(opts.CORSOrigin, handler)
	return WithRequestID(handler)
}
