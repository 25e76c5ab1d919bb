// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package recommend

import (
	"fmt"
	"time"
)

// Algorithm identifies one of the two offline passes. The type is
// closed: only the two constants below are valid values.
type Algorithm string

const (
	// AlgorithmItemCF is item-based collaborative filtering over the
	// user-item interaction matrix.
	AlgorithmItemCF Algorithm = "item_cf"

	// AlgorithmContent is content-based filtering over TF-IDF text
	// features.
	AlgorithmContent Algorithm = "content"
)

// SimilarityTag returns the tag under which this algorithm's rows are
// stored in the similarity cache.
func (a Algorithm) SimilarityTag() string {
	return string(a)
}

// RecommendationTag returns the tag under which this algorithm's rows
// are stored in the recommendation cache. The collaborative pass uses
// the short tag "cf" there; both caches predate the engine and keep
// their historical tag values.
func (a Algorithm) RecommendationTag() string {
	if a == AlgorithmItemCF {
		return "cf"
	}
	return string(a)
}

// ParseScope maps a CLI/API scope string to the set of passes to run.
// Accepted values: "cf", "content", "all".
func ParseScope(scope string) ([]Algorithm, error) {
	switch scope {
	case "cf":
		return []Algorithm{AlgorithmItemCF}, nil
	case "content":
		return []Algorithm{AlgorithmContent}, nil
	case "all", "":
		return []Algorithm{AlgorithmItemCF, AlgorithmContent}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm scope %q (want cf, content or all)", scope)
	}
}

// Signal is one aggregated user-novel interaction. Weight encodes the
// strongest signal observed for the pair: favorites 0.8, read history
// 0.5, ratings score/5*0.2.
type Signal struct {
	UserID  int64
	NovelID int64
	Weight  float64
}

// Favorite is a raw favorite event from the platform database.
type Favorite struct {
	UserID  int64
	NovelID int64
}

// Rating is a raw rating event. Score is on the platform's 1-5 scale.
type Rating struct {
	UserID  int64
	NovelID int64
	Score   float64
}

// ReadEntry is a raw read-history row.
type ReadEntry struct {
	UserID  int64
	NovelID int64
}

// Novel is the catalog metadata the engine consumes. Only published
// novels reach the engine; filtering happens at the data provider.
type Novel struct {
	ID       int64
	Title    string
	Author   string
	Category string
	Tags     []string
	Synopsis string

	FavoriteCount int64
	ViewCount     int64
	RatingAvg     float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SimilarityRow is one cached item-item similarity edge.
type SimilarityRow struct {
	NovelID   int64
	SimilarID int64
	Score     float64
}

// RecommendationRow is one cached user-novel recommendation.
type RecommendationRow struct {
	UserID  int64
	NovelID int64
	Score   float64
}

// FeatureVector is the sparse TF-IDF vector persisted per novel after
// a content pass, for inspection and downstream experimentation.
type FeatureVector struct {
	NovelID int64
	Terms   map[string]float64
}

// ScoredNovel is a resolver output entry.
type ScoredNovel struct {
	NovelID int64   `json:"novel_id"`
	Score   float64 `json:"score"`
}
