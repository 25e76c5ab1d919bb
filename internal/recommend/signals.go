// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package recommend

import (
	"context"
	"fmt"
	"sort"
)

// Interaction weights. A favorite is the strongest signal, a finished
// or ongoing read sits in the middle, and an explicit rating
// contributes proportionally to its score on the 1-5 scale.
const (
	favoriteWeight  = 0.8
	readWeight      = 0.5
	ratingMaxWeight = 0.2
	ratingScale     = 5.0
)

// pairKey identifies a (user, novel) pair during aggregation.
type pairKey struct {
	userID  int64
	novelID int64
}

// LoadSignals reads all interaction sources from the provider and
// aggregates them into one Signal per (user, novel) pair, keeping the
// maximum weight when a pair appears in several sources. The result is
// sorted by (UserID, NovelID) so downstream passes are deterministic.
//
// Returns ErrNoInteractions when every source is empty.
func LoadSignals(ctx context.Context, p DataProvider) ([]Signal, error) {
	favorites, err := p.Favorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	ratings, err := p.Ratings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	reads, err := p.ReadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load read history: %w", err)
	}

	weights := make(map[pairKey]float64, len(favorites)+len(ratings)+len(reads))

	record := func(userID, novelID int64, w float64) {
		key := pairKey{userID, novelID}
		if w > weights[key] {
			weights[key] = w
		}
	}

	for _, f := range favorites {
		record(f.UserID, f.NovelID, favoriteWeight)
	}
	for _, r := range reads {
		record(r.UserID, r.NovelID, readWeight)
	}
	for _, r := range ratings {
		score := r.Score
		if score < 0 {
			score = 0
		} else if score > ratingScale {
			score = ratingScale
		}
		record(r.UserID, r.NovelID, score/ratingScale*ratingMaxWeight)
	}

	if len(weights) == 0 {
		return nil, ErrNoInteractions
	}

	signals := make([]Signal, 0, len(weights))
	for key, w := range weights {
		signals = append(signals, Signal{UserID: key.userID, NovelID: key.novelID, Weight: w})
	}
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].UserID != signals[j].UserID {
			return signals[i].UserID < signals[j].UserID
		}
		return signals[i].NovelID < signals[j].NovelID
	})

	return signals, nil
}
