// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minreads/novelrec/internal/logging"
	"github.com/minreads/novelrec/internal/metrics"
	"github.com/minreads/novelrec/internal/recommend/algorithms"
)

// DataProvider supplies the engine's read-only inputs. Implemented by
// the database package; defined here so the engine does not depend on
// storage.
type DataProvider interface {
	Favorites(ctx context.Context) ([]Favorite, error)
	Ratings(ctx context.Context) ([]Rating, error)
	ReadHistory(ctx context.Context) ([]ReadEntry, error)
	PublishedNovels(ctx context.Context) ([]Novel, error)
}

// CacheWriter persists pass outputs. Each Replace call swaps the rows
// under one tag atomically: readers see either the previous snapshot
// or the new one, never a mix.
type CacheWriter interface {
	ReplaceSimilarities(ctx context.Context, tag string, rows []SimilarityRow) error
	ReplaceRecommendations(ctx context.Context, tag string, rows []RecommendationRow) error
	ReplaceFeatureVectors(ctx context.Context, vectors []FeatureVector) error
}

// Params are the engine tunables. Values mirror config.RecommendConfig;
// the CLI overrides individual fields from flags.
type Params struct {
	MinInteractions  int
	TopK             int
	TopN             int
	ContentThreshold float64
	MaxFeatures      int
	MinDF            int
	MaxDF            float64
	Workers          int
}

// DefaultParams returns the production parameter set.
func DefaultParams() Params {
	return Params{
		MinInteractions:  2,
		TopK:             20,
		TopN:             20,
		ContentThreshold: 0.1,
		MaxFeatures:      3000,
		MinDF:            2,
		MaxDF:            0.8,
	}
}

// PassStatus records the outcome of the most recent run of one pass.
type PassStatus struct {
	Outcome    string    `json:"outcome"` // ok, skipped, failed
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// Engine runs the offline compute passes. One run executes at a time;
// within a run each pass is isolated, so a failing collaborative pass
// does not prevent the content pass from refreshing its caches.
type Engine struct {
	provider DataProvider
	writer   CacheWriter
	params   Params

	runMu sync.Mutex

	vecOnce    sync.Once
	vectorizer *algorithms.Vectorizer
	vecErr     error

	statusMu sync.RWMutex
	status   map[Algorithm]PassStatus
}

// NewEngine creates an engine over the given provider and writer.
func NewEngine(provider DataProvider, writer CacheWriter, params Params) *Engine {
	return &Engine{
		provider: provider,
		writer:   writer,
		params:   params,
		status:   make(map[Algorithm]PassStatus),
	}
}

// Run executes the requested passes sequentially, blocking until any
// in-flight run finishes first. It returns an error only when every
// requested pass failed hard; skips count as success.
func (e *Engine) Run(ctx context.Context, scope []Algorithm) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.run(ctx, scope)
}

// TryRun is Run without blocking: it returns ErrRunInProgress when
// another run holds the engine.
func (e *Engine) TryRun(ctx context.Context, scope []Algorithm) error {
	if !e.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer e.runMu.Unlock()
	return e.run(ctx, scope)
}

// Start launches a run in the background. It returns ErrRunInProgress
// immediately when another run holds the engine; otherwise the run's
// outcome is observable through Status and the logs. Used by the
// admin trigger endpoint.
func (e *Engine) Start(scope []Algorithm) error {
	if !e.runMu.TryLock() {
		return ErrRunInProgress
	}
	go func() {
		defer e.runMu.Unlock()
		if err := e.run(context.Background(), scope); err != nil {
			logging.Error().Err(err).Msg("background compute run failed")
		}
	}()
	return nil
}

func (e *Engine) run(ctx context.Context, scope []Algorithm) error {
	runID := uuid.NewString()
	logger := logging.With().Str("run_id", runID).Logger()
	logger.Info().Int("passes", len(scope)).Msg("compute run started")

	var failures []error
	for _, alg := range scope {
		start := time.Now()
		err := e.runPass(ctx, alg)
		elapsed := time.Since(start)

		switch {
		case err == nil:
			metrics.RecordPass(string(alg), metrics.OutcomeOK, elapsed)
			e.setStatus(alg, PassStatus{Outcome: metrics.OutcomeOK, FinishedAt: time.Now()})
			logger.Info().
				Str("algorithm", string(alg)).
				Dur("elapsed", elapsed).
				Msg("pass completed")
		case IsSkip(err):
			metrics.RecordPass(string(alg), metrics.OutcomeSkipped, elapsed)
			e.setStatus(alg, PassStatus{Outcome: metrics.OutcomeSkipped, FinishedAt: time.Now(), Error: err.Error()})
			logger.Info().
				Str("algorithm", string(alg)).
				Str("reason", err.Error()).
				Msg("pass skipped, existing caches left in place")
		default:
			metrics.RecordPass(string(alg), metrics.OutcomeFailed, elapsed)
			e.setStatus(alg, PassStatus{Outcome: metrics.OutcomeFailed, FinishedAt: time.Now(), Error: err.Error()})
			logger.Error().
				Err(err).
				Str("algorithm", string(alg)).
				Dur("elapsed", elapsed).
				Msg("pass failed")
			failures = append(failures, fmt.Errorf("%s: %w", alg, err))
		}
	}

	if len(failures) > 0 && len(failures) == len(scope) {
		return fmt.Errorf("all passes failed: %w", errors.Join(failures...))
	}
	return nil
}

func (e *Engine) runPass(ctx context.Context, alg Algorithm) error {
	switch alg {
	case AlgorithmItemCF:
		return e.runCollaborative(ctx)
	case AlgorithmContent:
		return e.runContent(ctx)
	default:
		return fmt.Errorf("unknown algorithm %q", alg)
	}
}

// Status returns a copy of the per-pass outcomes of the most recent
// runs.
func (e *Engine) Status() map[Algorithm]PassStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	out := make(map[Algorithm]PassStatus, len(e.status))
	for k, v := range e.status {
		out[k] = v
	}
	return out
}

func (e *Engine) setStatus(alg Algorithm, st PassStatus) {
	e.statusMu.Lock()
	e.status[alg] = st
	e.statusMu.Unlock()
}

// runCollaborative executes the item-based collaborative pass: signals
// to matrix to item-space cosine similarities to per-user scores.
func (e *Engine) runCollaborative(ctx context.Context) error {
	signals, err := LoadSignals(ctx, e.provider)
	if err != nil {
		return err
	}

	interactions := make([]algorithms.Interaction, len(signals))
	for i, s := range signals {
		interactions[i] = algorithms.Interaction{UserID: s.UserID, ItemID: s.NovelID, Weight: s.Weight}
	}

	m := algorithms.BuildMatrix(interactions, e.params.MinInteractions)
	if m.IsEmpty() {
		return fmt.Errorf("min_interactions=%d: %w", e.params.MinInteractions, ErrEmptyMatrix)
	}
	metrics.MatrixDimensions.WithLabelValues("users").Set(float64(len(m.UserIDs)))
	metrics.MatrixDimensions.WithLabelValues("novels").Set(float64(len(m.ItemIDs)))

	simRows, err := algorithms.SimilarityRows(ctx, m.Cols, e.params.Workers)
	if err != nil {
		return fmt.Errorf("compute item similarities: %w", err)
	}

	topK := algorithms.TopK(simRows, e.params.TopK, 0)
	simOut := make([]SimilarityRow, 0, len(topK)*e.params.TopK)
	for i, neighbors := range topK {
		for _, nb := range neighbors {
			simOut = append(simOut, SimilarityRow{
				NovelID:   m.ItemIDs[i],
				SimilarID: m.ItemIDs[nb.Index],
				Score:     nb.Score,
			})
		}
	}
	tag := AlgorithmItemCF.SimilarityTag()
	if err := e.writer.ReplaceSimilarities(ctx, tag, simOut); err != nil {
		return fmt.Errorf("write similarities: %w", err)
	}
	metrics.SimilarityRowsWritten.WithLabelValues(tag).Add(float64(len(simOut)))

	recOut := make([]RecommendationRow, 0, len(m.UserIDs)*e.params.TopN)
	scoredUsers := 0
	for ui, userID := range m.UserIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		scored := algorithms.ScoreCF(m.Rows[ui], simRows, e.params.TopN)
		if len(scored) == 0 {
			continue
		}
		scoredUsers++
		for _, s := range scored {
			recOut = append(recOut, RecommendationRow{
				UserID:  userID,
				NovelID: m.ItemIDs[s.Index],
				Score:   s.Score,
			})
		}
	}
	recTag := AlgorithmItemCF.RecommendationTag()
	if err := e.writer.ReplaceRecommendations(ctx, recTag, recOut); err != nil {
		return fmt.Errorf("write recommendations: %w", err)
	}
	metrics.RecommendationRowsWritten.WithLabelValues(recTag).Add(float64(len(recOut)))
	metrics.UsersScored.WithLabelValues(recTag).Set(float64(scoredUsers))

	return nil
}

// runContent executes the content-based pass: weighted catalog text to
// TF-IDF vectors to cosine similarities, then per-user taste profiles.
func (e *Engine) runContent(ctx context.Context) error {
	novels, err := e.provider.PublishedNovels(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(novels) == 0 {
		return fmt.Errorf("no published novels: %w", ErrNoInteractions)
	}

	vectorizer, err := e.contentVectorizer()
	if err != nil {
		return err
	}

	docs := make([]string, len(novels))
	novelIndex := make(map[int64]int, len(novels))
	for i, n := range novels {
		docs[i] = weightedDocument(n)
		novelIndex[n.ID] = i
	}

	model, err := vectorizer.FitTransform(docs)
	if err != nil {
		if errors.Is(err, algorithms.ErrEmptyVocabulary) {
			return fmt.Errorf("%v: %w", err, ErrNoFeatures)
		}
		return fmt.Errorf("vectorize catalog: %w", err)
	}
	metrics.VocabularySize.Set(float64(len(model.Terms)))

	simRows, err := algorithms.SimilarityRows(ctx, model.Rows, e.params.Workers)
	if err != nil {
		return fmt.Errorf("compute content similarities: %w", err)
	}

	topK := algorithms.TopK(simRows, e.params.TopK, e.params.ContentThreshold)
	simOut := make([]SimilarityRow, 0, len(topK)*e.params.TopK)
	for i, neighbors := range topK {
		for _, nb := range neighbors {
			simOut = append(simOut, SimilarityRow{
				NovelID:   novels[i].ID,
				SimilarID: novels[nb.Index].ID,
				Score:     nb.Score,
			})
		}
	}
	tag := AlgorithmContent.SimilarityTag()
	if err := e.writer.ReplaceSimilarities(ctx, tag, simOut); err != nil {
		return fmt.Errorf("write similarities: %w", err)
	}
	metrics.SimilarityRowsWritten.WithLabelValues(tag).Add(float64(len(simOut)))

	vectors := make([]FeatureVector, len(novels))
	for i, n := range novels {
		vectors[i] = FeatureVector{NovelID: n.ID, Terms: model.TermWeights(model.Rows[i])}
	}
	if err := e.writer.ReplaceFeatureVectors(ctx, vectors); err != nil {
		return fmt.Errorf("write feature vectors: %w", err)
	}

	// User profiles average over every interacted novel; the matrix
	// filter does not apply here.
	signals, err := LoadSignals(ctx, e.provider)
	if err != nil && !errors.Is(err, ErrNoInteractions) {
		return err
	}

	byUser := make(map[int64][]Signal)
	userIDs := make([]int64, 0)
	for _, s := range signals {
		if _, ok := novelIndex[s.NovelID]; !ok {
			continue
		}
		if _, seen := byUser[s.UserID]; !seen {
			userIDs = append(userIDs, s.UserID)
		}
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}

	recOut := make([]RecommendationRow, 0, len(userIDs)*e.params.TopN)
	scoredUsers := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		userSignals := byUser[userID]
		items := make([]algorithms.ProfileItem, 0, len(userSignals))
		exclude := make(map[int]bool, len(userSignals))
		for _, s := range userSignals {
			idx := novelIndex[s.NovelID]
			items = append(items, algorithms.ProfileItem{Index: idx, Weight: s.Weight})
			exclude[idx] = true
		}

		profile := algorithms.ContentProfile(model.Rows, items)
		if len(profile) == 0 {
			continue
		}
		scored := algorithms.ScoreContent(profile, model.Rows, exclude, e.params.TopN)
		if len(scored) == 0 {
			continue
		}
		scoredUsers++
		for _, s := range scored {
			recOut = append(recOut, RecommendationRow{
				UserID:  userID,
				NovelID: novels[s.Index].ID,
				Score:   s.Score,
			})
		}
	}
	recTag := AlgorithmContent.RecommendationTag()
	if err := e.writer.ReplaceRecommendations(ctx, recTag, recOut); err != nil {
		return fmt.Errorf("write recommendations: %w", err)
	}
	metrics.RecommendationRowsWritten.WithLabelValues(recTag).Add(float64(len(recOut)))
	metrics.UsersScored.WithLabelValues(recTag).Set(float64(scoredUsers))

	return nil
}

// contentVectorizer lazily builds the vectorizer once per engine; the
// segmentation dictionary load is expensive.
func (e *Engine) contentVectorizer() (*algorithms.Vectorizer, error) {
	e.vecOnce.Do(func() {
		e.vectorizer, e.vecErr = algorithms.NewVectorizer(algorithms.VectorizerConfig{
			MaxFeatures: e.params.MaxFeatures,
			MinDF:       e.params.MinDF,
			MaxDF:       e.params.MaxDF,
		})
	})
	if e.vecErr != nil {
		return nil, fmt.Errorf("initialize vectorizer: %w", e.vecErr)
	}
	return e.vectorizer, nil
}

// Text field weights for content vectorization. Title and category
// carry the most signal for web novels, tags sit in the middle,
// synopsis and author contribute once each.
const (
	titleRepeat    = 3
	categoryRepeat = 3
	tagsRepeat     = 2
)

// weightedDocument concatenates a novel's text fields with repetition
// encoding the field weights.
func weightedDocument(n Novel) string {
	parts := make([]string, 0, titleRepeat+categoryRepeat+tagsRepeat*len(n.Tags)+2)
	for i := 0; i < titleRepeat; i++ {
		parts = append(parts, n.Title)
	}
	for i := 0; i < categoryRepeat; i++ {
		parts = append(parts, n.Category)
	}
	for i := 0; i < tagsRepeat; i++ {
		parts = append(parts, n.Tags...)
	}
	parts = append(parts, n.Synopsis, n.Author)
	return strings.Join(parts, " ")
}
