// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"handoff/internal/controller/handlers"
	"handoff/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server. metricsHandler may be nil, in which
// case no /metrics endpoint is exposed.
func New(addr string, h *handlers.Handlers, logger *slog.Logger, rateLimit float64, rateBurst int, metricsHandler http.Handler) *Server {
	requestID := middleware.RequestID(logger)
	limit := middleware.RateLimit(rateLimit, rateBurst)

	mux := http.NewServeMux()

	// Client-facing apis
	mux.HandleFunc("GET /get-upload-url", h.GetUploadURL)
	mux.HandleFunc("GET /prepare-job", h.PrepareJob)
	mux.HandleFunc("GET /jobs/{id}", h.GetJobByID)

	// Worker-facing apis
	mux.HandleFunc("GET /get-job", h.GetJob)
	mux.HandleFunc("POST /jobs/{id}/result", h.ReportResult)

	// Probes are unmetered so orchestrators never get throttled.
	probes := http.NewServeMux()
	probes.HandleFunc("GET /healthz", h.Healthz)
	probes.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		probes.Handle("GET /metrics", metricsHandler)
	}

	root := http.NewServeMux()
	root.Handle("/healthz", probes)
	root.Handle("/readyz", probes)
	root.Handle("/metrics", probes)
	root.Handle("/", requestID(limit(mux)))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      root,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
