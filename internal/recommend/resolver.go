// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/minreads/novelrec/internal/metrics"
	"github.com/minreads/novelrec/internal/recommend/algorithms"
)

// CacheReader is the read side of the caches plus the catalog lookups
// the resolver needs. Implemented by the database package.
type CacheReader interface {
	// SimilarNovels returns cached neighbors of a novel merged across
	// algorithms, strongest first.
	SimilarNovels(ctx context.Context, novelID int64, limit int) ([]SimilarityRow, error)

	// CachedRecommendations returns the cached rows for one user under
	// one recommendation tag.
	CachedRecommendations(ctx context.Context, userID int64, tag string) ([]RecommendationRow, error)

	// NovelStats returns popularity counters for all published novels.
	NovelStats(ctx context.Context) ([]algorithms.NovelStats, error)

	// NovelCategory returns the category of a published novel. The
	// bool is false when the novel does not exist or is unpublished.
	NovelCategory(ctx context.Context, novelID int64) (string, bool, error)

	// CategoryStats returns popularity counters for published novels
	// in one category.
	CategoryStats(ctx context.Context, category string) ([]algorithms.NovelStats, error)

	// LatestNovels returns published novel IDs by most recent update.
	LatestNovels(ctx context.Context, limit int) ([]int64, error)
}

// Resolver answers read-path queries from the caches, blending the two
// algorithms and falling back to popularity when a cache has nothing
// for the request.
type Resolver struct {
	store        CacheReader
	blendCF      float64
	blendContent float64
	popWeights   algorithms.PopularityWeights
}

// NewResolver creates a resolver with the given blend and popularity
// weights.
func NewResolver(store CacheReader, blendCF, blendContent float64, pop algorithms.PopularityWeights) *Resolver {
	return &Resolver{
		store:        store,
		blendCF:      blendCF,
		blendContent: blendContent,
		popWeights:   pop,
	}
}

// Personalized returns blended recommendations for a user. Cached CF
// and content rows are merged per novel as blendCF*cf + blendContent*content;
// a novel present in only one cache keeps that single weighted score.
// Users with no cached rows at all (cold start, or scrubbed by the
// matrix filter) fall back to the popularity ranking.
func (r *Resolver) Personalized(ctx context.Context, userID int64, limit int) ([]ScoredNovel, error) {
	cfRows, err := r.store.CachedRecommendations(ctx, userID, AlgorithmItemCF.RecommendationTag())
	if err != nil {
		return nil, fmt.Errorf("read cf cache: %w", err)
	}
	contentRows, err := r.store.CachedRecommendations(ctx, userID, AlgorithmContent.RecommendationTag())
	if err != nil {
		return nil, fmt.Errorf("read content cache: %w", err)
	}

	if len(cfRows) == 0 && len(contentRows) == 0 {
		metrics.ResolverFallbacks.WithLabelValues("personalized").Inc()
		return r.Hot(ctx, limit)
	}

	merged := make(map[int64]float64, len(cfRows)+len(contentRows))
	for _, row := range cfRows {
		merged[row.NovelID] += r.blendCF * row.Score
	}
	for _, row := range contentRows {
		merged[row.NovelID] += r.blendContent * row.Score
	}

	out := make([]ScoredNovel, 0, len(merged))
	for id, score := range merged {
		out = append(out, ScoredNovel{NovelID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].NovelID < out[j].NovelID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Similar returns cached neighbors of a novel. When the caches hold
// nothing for it (new novel, or below every threshold) the fallback is
// the popularity ranking of the novel's own category, excluding the
// novel itself.
func (r *Resolver) Similar(ctx context.Context, novelID int64, limit int) ([]ScoredNovel, error) {
	rows, err := r.store.SimilarNovels(ctx, novelID, limit)
	if err != nil {
		return nil, fmt.Errorf("read similarity cache: %w", err)
	}
	if len(rows) > 0 {
		out := make([]ScoredNovel, len(rows))
		for i, row := range rows {
			out[i] = ScoredNovel{NovelID: row.SimilarID, Score: row.Score}
		}
		return out, nil
	}

	metrics.ResolverFallbacks.WithLabelValues("similar").Inc()

	category, found, err := r.store.NovelCategory(ctx, novelID)
	if err != nil {
		return nil, fmt.Errorf("look up novel category: %w", err)
	}
	if !found {
		return []ScoredNovel{}, nil
	}
	stats, err := r.store.CategoryStats(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("read category stats: %w", err)
	}

	ranked := algorithms.RankByPopularity(stats, r.popWeights)
	out := make([]ScoredNovel, 0, limit)
	for _, rn := range ranked {
		if rn.ID == novelID {
			continue
		}
		out = append(out, ScoredNovel{NovelID: rn.ID, Score: rn.Score})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Hot returns the popularity ranking of the whole published catalog.
func (r *Resolver) Hot(ctx context.Context, limit int) ([]ScoredNovel, error) {
	stats, err := r.store.NovelStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read novel stats: %w", err)
	}
	ranked := algorithms.RankByPopularity(stats, r.popWeights)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]ScoredNovel, len(ranked))
	for i, rn := range ranked {
		out[i] = ScoredNovel{NovelID: rn.ID, Score: rn.Score}
	}
	return out, nil
}

// Latest returns the most recently updated published novels. Scores
// are zero; the ordering is the payload.
func (r *Resolver) Latest(ctx context.Context, limit int) ([]ScoredNovel, error) {
	ids, err := r.store.LatestNovels(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read latest novels: %w", err)
	}
	out := make([]ScoredNovel, len(ids))
	for i, id := range ids {
		out[i] = ScoredNovel{NovelID: id}
	}
	return out, nil
}
