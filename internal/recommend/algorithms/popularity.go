// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import (
	"sort"
	"time"
)

// PopularityWeights blends the three popularity metrics. The resolver
// passes the configured values; defaults are 0.5/0.3/0.2.
type PopularityWeights struct {
	Favorite float64
	View     float64
	Rating   float64
}

// NovelStats carries the aggregate counters popularity ranks on.
type NovelStats struct {
	ID        int64
	Favorites int64
	Views     int64
	Rating    float64
	UpdatedAt time.Time
}

// RankedNovel is one popularity-ranked entry.
type RankedNovel struct {
	ID    int64
	Score float64
}

// RankByPopularity scores novels as a weighted sum of min-max
// normalized favorite counts, view counts and average ratings. A
// metric whose range is zero across the input contributes 0 for every
// novel. Ties order by most recent update, then by ID.
func RankByPopularity(items []NovelStats, w PopularityWeights) []RankedNovel {
	if len(items) == 0 {
		return nil
	}

	var (
		minFav, maxFav   = items[0].Favorites, items[0].Favorites
		minView, maxView = items[0].Views, items[0].Views
		minRat, maxRat   = items[0].Rating, items[0].Rating
	)
	for _, it := range items[1:] {
		if it.Favorites < minFav {
			minFav = it.Favorites
		}
		if it.Favorites > maxFav {
			maxFav = it.Favorites
		}
		if it.Views < minView {
			minView = it.Views
		}
		if it.Views > maxView {
			maxView = it.Views
		}
		if it.Rating < minRat {
			minRat = it.Rating
		}
		if it.Rating > maxRat {
			maxRat = it.Rating
		}
	}

	norm := func(v, lo, hi float64) float64 {
		if hi == lo {
			return 0
		}
		return (v - lo) / (hi - lo)
	}

	type rankedWithTime struct {
		RankedNovel
		updatedAt time.Time
	}
	ranked := make([]rankedWithTime, len(items))
	for i, it := range items {
		score := w.Favorite*norm(float64(it.Favorites), float64(minFav), float64(maxFav)) +
			w.View*norm(float64(it.Views), float64(minView), float64(maxView)) +
			w.Rating*norm(it.Rating, minRat, maxRat)
		ranked[i] = rankedWithTime{
			RankedNovel: RankedNovel{ID: it.ID, Score: score},
			updatedAt:   it.UpdatedAt,
		}
	}

	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		if !ranked[a].updatedAt.Equal(ranked[b].updatedAt) {
			return ranked[a].updatedAt.After(ranked[b].updatedAt)
		}
		return ranked[a].ID < ranked[b].ID
	})

	out := make([]RankedNovel, len(ranked))
	for i, r := range ranked {
		out[i] = r.RankedNovel
	}
	return out
}
