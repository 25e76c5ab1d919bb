// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package recommend

import "errors"

// Pass-level conditions. The first two mark a pass as skipped: the
// engine logs them and leaves the existing cache untouched. Anything
// else fails the pass.
var (
	// ErrNoInteractions means a pass had no input to work with: empty
	// interaction sources, or an empty catalog for the content pass.
	ErrNoInteractions = errors.New("no input data available")

	// ErrEmptyMatrix means the min-interaction filter left no users or
	// no novels in the matrix.
	ErrEmptyMatrix = errors.New("interaction matrix empty after filtering")

	// ErrNoFeatures means text vectorization produced an empty
	// vocabulary or no usable documents. Unlike the conditions above
	// this indicates broken input data and fails the pass.
	ErrNoFeatures = errors.New("text vectorization produced no features")

	// ErrRunInProgress is returned by TryRun when another compute run
	// holds the engine.
	ErrRunInProgress = errors.New("a compute run is already in progress")
)

// IsSkip reports whether err is a benign skip condition rather than a
// pass failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrNoInteractions) || errors.Is(err, ErrEmptyMatrix)
}
