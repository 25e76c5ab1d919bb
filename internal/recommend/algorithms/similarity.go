// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import (
	"context"
	"runtime"
	"sort"
	"sync"
)

// Neighbor is one similarity edge from a source row to Index.
type Neighbor struct {
	Index int
	Score float64
}

// SimilarityRows computes the full pairwise cosine similarity of the
// given vectors. Row i holds the similarity of vector i to every other
// vector; the diagonal is excluded and exact zeros are not stored.
//
// Rows are computed in parallel chunks across the given number of
// workers (0 means GOMAXPROCS). Chunking only changes the schedule:
// the result is identical to a sequential full pairwise computation.
func SimilarityRows(ctx context.Context, vectors []Vector, workers int) ([]Vector, error) {
	n := len(vectors)
	rows := make([]Vector, n)
	if n == 0 {
		return rows, nil
	}

	norms := make([]float64, n)
	for i, v := range vectors {
		norms[i] = Norm(v)
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		cancelMu sync.Mutex
		cancelEr error
	)

	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					cancelMu.Lock()
					cancelEr = err
					cancelMu.Unlock()
					return
				}
				row := make(Vector)
				if norms[i] != 0 {
					for j := 0; j < n; j++ {
						if j == i || norms[j] == 0 {
							continue
						}
						if d := Dot(vectors[i], vectors[j]); d != 0 {
							row[j] = d / (norms[i] * norms[j])
						}
					}
				}
				rows[i] = row
			}
		}(start, end)
	}

	wg.Wait()
	if cancelEr != nil {
		return nil, cancelEr
	}
	return rows, nil
}

// TopK prunes each similarity row to its strongest k neighbors with
// scores strictly above threshold. Neighbors are ordered by score
// descending; equal scores order by index ascending so the output is
// deterministic.
func TopK(rows []Vector, k int, threshold float64) [][]Neighbor {
	out := make([][]Neighbor, len(rows))
	for i, row := range rows {
		neighbors := make([]Neighbor, 0, len(row))
		for j, score := range row {
			neighbors = append(neighbors, Neighbor{Index: j, Score: score})
		}
		sort.Slice(neighbors, func(a, b int) bool {
			if neighbors[a].Score != neighbors[b].Score {
				return neighbors[a].Score > neighbors[b].Score
			}
			return neighbors[a].Index < neighbors[b].Index
		})

		kept := make([]Neighbor, 0, k)
		for _, nb := range neighbors {
			if nb.Score <= threshold {
				break
			}
			kept = append(kept, nb)
			if len(kept) == k {
				break
			}
		}
		out[i] = kept
	}
	return out
}
