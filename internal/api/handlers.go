// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/minreads/novelrec/internal/logging"
	"github.com/minreads/novelrec/internal/recommend"
)

// Recommender is the read-path surface the handlers serve. Satisfied
// by *recommend.Resolver.
type Recommender interface {
	Personalized(ctx context.Context, userID int64, limit int) ([]recommend.ScoredNovel, error)
	Similar(ctx context.Context, novelID int64, limit int) ([]recommend.ScoredNovel, error)
	Hot(ctx context.Context, limit int) ([]recommend.ScoredNovel, error)
	Latest(ctx context.Context, limit int) ([]recommend.ScoredNovel, error)
}

// ComputeTrigger is the admin surface over the engine. Satisfied by
// *recommend.Engine.
type ComputeTrigger interface {
	Start(scope []recommend.Algorithm) error
	Status() map[recommend.Algorithm]recommend.PassStatus
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	rec    Recommender
	engine ComputeTrigger
	ping   func(context.Context) error

	defaultLimit int
	maxLimit     int

	// adminLimiter throttles compute triggers; a run is expensive and
	// the endpoint is unauthenticated inside the platform network.
	adminLimiter *rate.Limiter
}

// NewHandler wires the handler set. ping reports storage health for
// /healthz and may be nil.
func NewHandler(rec Recommender, engine ComputeTrigger, ping func(context.Context) error, defaultLimit, maxLimit int) *Handler {
	return &Handler{
		rec:          rec,
		engine:       engine,
		ping:         ping,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		adminLimiter: rate.NewLimiter(rate.Limit(1.0/30.0), 2),
	}
}

type listResponse struct {
	Data  []recommend.ScoredNovel `json:"data"`
	Count int                     `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("write response")
	}
}

func respondList(w http.ResponseWriter, novels []recommend.ScoredNovel) {
	if novels == nil {
		novels = []recommend.ScoredNovel{}
	}
	respondJSON(w, http.StatusOK, listResponse{Data: novels, Count: len(novels)})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// limit reads and clamps the limit query parameter. A missing
// parameter uses the configured default; out-of-range values clamp
// rather than error.
func (h *Handler) limit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if n < 1 {
		n = 1
	}
	if n > h.maxLimit {
		n = h.maxLimit
	}
	return n, nil
}

// Health reports process and storage liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"reason": err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Hot serves the popularity ranking of the published catalog.
func (h *Handler) Hot(w http.ResponseWriter, r *http.Request) {
	limit, err := h.limit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	novels, err := h.rec.Hot(r.Context(), limit)
	if err != nil {
		logging.Error().Err(err).Msg("hot ranking failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondList(w, novels)
}

// Latest serves the most recently published novels.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	limit, err := h.limit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	novels, err := h.rec.Latest(r.Context(), limit)
	if err != nil {
		logging.Error().Err(err).Msg("latest listing failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondList(w, novels)
}

// Personalized serves blended per-user recommendations, falling back
// to the popularity ranking for cold-start users.
func (h *Handler) Personalized(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		respondError(w, http.StatusBadRequest, "user_id must be a positive integer")
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	novels, err := h.rec.Personalized(r.Context(), userID, limit)
	if err != nil {
		logging.Error().Err(err).Int64("user_id", userID).Msg("personalized recommendations failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondList(w, novels)
}

// Similar serves cached neighbors of a novel, falling back to the
// novel's category popularity ranking.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	novelID, err := strconv.ParseInt(chi.URLParam(r, "novelID"), 10, 64)
	if err != nil || novelID < 1 {
		respondError(w, http.StatusBadRequest, "novel id must be a positive integer")
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	novels, err := h.rec.Similar(r.Context(), novelID, limit)
	if err != nil {
		logging.Error().Err(err).Int64("novel_id", novelID).Msg("similar novels failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondList(w, novels)
}

// Recompute triggers a background compute run for the requested
// algorithm scope ("cf", "content" or "all", defaulting to all).
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	if !h.adminLimiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "recompute trigger rate exceeded")
		return
	}

	scope, err := recommend.ParseScope(r.URL.Query().Get("algorithm"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.Start(scope); err != nil {
		if errors.Is(err, recommend.ErrRunInProgress) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		logging.Error().Err(err).Msg("start compute run")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	passes := make([]string, len(scope))
	for i, alg := range scope {
		passes[i] = string(alg)
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"status": "scheduled",
		"passes": passes,
	})
}

// ComputeStatus reports the outcome of the most recent pass runs.
func (h *Handler) ComputeStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Status())
}
