// Copyright 2026 Skillflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server provides the HTTP API over the skill engine: listing
// and validating skills, executing them, and resuming suspended
// executions.
package server

import (
	"log/slog"
	"net/http"

	"github.com/skillflow/skillflow/internal/log"
	"github.com/skillflow/skillflow/internal/server/httputil"
)

// RouterConfig holds configuration for the API router.
type RouterConfig struct {
	Version string
}

// Router wraps an http.ServeMux with logging middleware and the
// health and metrics endpoints.
type Router struct {
	mux     *http.ServeMux
	config  RouterConfig
	logger  *slog.Logger
	handler http.Handler
}

// NewRouter creates a router with the health endpoint registered.
func NewRouter(cfg RouterConfig, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		mux:    http.NewServeMux(),
		config: cfg,
		logger: logger,
	}
	r.mux.HandleFunc("GET /healthz", r.handleHealth)
	r.handler = log.NewHTTPMiddleware(logger).Wrap(r.mux)
	return r
}

// Mux exposes the underlying mux for handler registration.
func (r *Router) Mux() *http.ServeMux {
	return r.mux
}

// SetMetricsHandler registers the Prometheus metrics endpoint.
func (r *Router) SetMetricsHandler(handler http.Handler) {
	if handler != nil {
		r.mux.Handle("GET /metrics", handler)
	}
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": r.config.Version,
	})
}
