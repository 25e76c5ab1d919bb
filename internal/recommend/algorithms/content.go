// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

// ProfileItem ties a document row index to an interaction weight.
type ProfileItem struct {
	Index  int
	Weight float64
}

// ContentProfile builds a user taste profile as the weighted average
// of the feature rows of the novels the user interacted with. Returns
// an empty vector when the total weight is zero.
func ContentProfile(rows []Vector, items []ProfileItem) Vector {
	profile := make(Vector)
	var total float64
	for _, it := range items {
		if it.Weight <= 0 {
			continue
		}
		AddScaled(profile, rows[it.Index], it.Weight)
		total += it.Weight
	}
	if total == 0 {
		return make(Vector)
	}
	for idx := range profile {
		profile[idx] /= total
	}
	return profile
}

// ScoreContent ranks every feature row by cosine similarity to the
// profile, skipping excluded indices, and returns the topN positive
// matches.
func ScoreContent(profile Vector, rows []Vector, exclude map[int]bool, topN int) []Scored {
	scores := make(Vector)
	for i, row := range rows {
		if exclude[i] {
			continue
		}
		if s := Cosine(profile, row); s > 0 {
			scores[i] = s
		}
	}
	return topScored(scores, topN)
}
