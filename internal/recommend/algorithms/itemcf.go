// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import "sort"

// Scored is one scored item index.
type Scored struct {
	Index int
	Score float64
}

// ScoreCF computes collaborative recommendations for one user row.
//
// The row is multiplied against the full similarity rows: every item j
// the user interacted with contributes weight(j) * sim(j, i) to
// candidate i. Interacted items are excluded, and only the strongest
// topN candidates with positive scores are returned.
func ScoreCF(row Vector, simRows []Vector, topN int) []Scored {
	scores := make(Vector)
	for j, w := range row {
		AddScaled(scores, simRows[j], w)
	}
	for j := range row {
		delete(scores, j)
	}
	return topScored(scores, topN)
}

// topScored returns the topN positive entries of scores, ordered by
// score descending with index ascending on ties.
func topScored(scores Vector, topN int) []Scored {
	out := make([]Scored, 0, len(scores))
	for idx, s := range scores {
		if s > 0 {
			out = append(out, Scored{Index: idx, Score: s})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Index < out[b].Index
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
