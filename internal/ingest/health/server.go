// Package health exposes HTTP endpoints for pipeline status monitoring.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datalakehq/statingest/internal/ingest/orchestrator"
	"github.com/datalakehq/statingest/internal/ingest/retry"
)

// Server provides /health, /summary and /metrics.
type Server struct {
	server  *http.Server
	summary func() orchestrator.Summary
	errors  func() retry.Summary
}

// NewServer creates a status server over the given summary sources.
func NewServer(port int, summary func() orchestrator.Summary, errors func() retry.Summary) *Server {
	mux := http.NewServeMux()
	s := &Server{
		summary: summary,
		errors:  errors,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Datasets orchestrator.Summary `json:"datasets"`
		Errors   retry.Summary        `json:"errors"`
	}{
		Datasets: s.summary(),
		Errors:   s.errors(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
