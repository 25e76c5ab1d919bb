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

	"github.com/minreads/novelrec/internal/metrics"
)

// observeRequests records per-endpoint latency and counts. The route
// pattern is used as the endpoint label so path parameters do not
// explode cardinality.
func observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		metrics.RecordAPIRequest(r.Method, pattern, ww.Status(), time.Since(start))
	})
}
