// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package algorithms implements the numerical kernels of the offline
// engine: the sparse user-item matrix, TF-IDF text vectorization with
// CJK segmentation, pairwise cosine similarity, the collaborative and
// content-based scorers, and the popularity ranking.
//
// The package is self-contained: it has no knowledge of storage or
// configuration and operates on plain slices and sparse vectors. The
// recommend package orchestrates it.
package algorithms
