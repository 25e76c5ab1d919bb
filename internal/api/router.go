// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the middleware knobs for the read-path router.
type RouterConfig struct {
	CORSOrigins []string

	// RateLimitReqs per RateLimitWindow per client IP. 0 disables
	// rate limiting.
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// Router builds the HTTP handler tree for the given handler set.
func Router(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		}))
	}

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/recommendations", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			window := cfg.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByRealIP(cfg.RateLimitReqs, window))
		}
		r.Use(observeRequests)

		r.Get("/hot", h.Hot)
		r.Get("/latest", h.Latest)
		r.Get("/personalized", h.Personalized)
		r.Get("/similar/{novelID}", h.Similar)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(observeRequests)
		r.Post("/recompute", h.Recompute)
		r.Get("/status", h.ComputeStatus)
	})

	return r
}
