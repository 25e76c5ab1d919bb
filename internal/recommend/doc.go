// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package recommend orchestrates the offline recommendation engine.
//
// The Engine runs two independent passes over the platform data held
// in DuckDB:
//
//   - item_cf: interaction signals are aggregated per (user, novel)
//     pair, filtered into a user-item matrix, and item-space cosine
//     similarities plus per-user scores are cached.
//   - content: catalog text is segmented and vectorized (TF-IDF), and
//     pairwise cosine similarities plus per-user taste-profile scores
//     are cached.
//
// Each pass replaces its cache rows transactionally, so the serving
// side always reads a complete snapshot. Passes are isolated: one
// failing never blocks the other from refreshing.
//
// The Resolver is the serving side. It blends the cached scores of the
// two passes for personalized feeds and falls back to a popularity
// ranking (or same-category popularity, for similar-novel queries)
// when the caches hold nothing for a request.
package recommend
