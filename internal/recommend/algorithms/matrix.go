// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import "sort"

// Interaction is one weighted user-item pair feeding the matrix.
type Interaction struct {
	UserID int64
	ItemID int64
	Weight float64
}

// Matrix is the filtered user-item interaction matrix. Users and items
// are assigned dense indices in ascending ID order; Rows holds one
// sparse vector per user keyed by item index, Cols one per item keyed
// by user index.
type Matrix struct {
	UserIDs []int64
	ItemIDs []int64

	userIndex map[int64]int
	itemIndex map[int64]int

	Rows []Vector
	Cols []Vector
}

// BuildMatrix filters interactions and assembles the matrix.
//
// The filter is a single pass: interaction counts per user and per
// item are taken over the raw input, both axes are thresholded against
// minInteractions once, and interactions whose user or item fell below
// the threshold are dropped. Counts are NOT recomputed after the drop,
// so a surviving row can end up with fewer than minInteractions
// entries. That is intentional and matches the production behavior the
// caches were built with; re-filtering iteratively would converge to a
// different (denser) matrix.
func BuildMatrix(interactions []Interaction, minInteractions int) *Matrix {
	userCounts := make(map[int64]int)
	itemCounts := make(map[int64]int)
	for _, in := range interactions {
		userCounts[in.UserID]++
		itemCounts[in.ItemID]++
	}

	userIDs := make([]int64, 0, len(userCounts))
	for id, n := range userCounts {
		if n >= minInteractions {
			userIDs = append(userIDs, id)
		}
	}
	itemIDs := make([]int64, 0, len(itemCounts))
	for id, n := range itemCounts {
		if n >= minInteractions {
			itemIDs = append(itemIDs, id)
		}
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	m := &Matrix{
		UserIDs:   userIDs,
		ItemIDs:   itemIDs,
		userIndex: make(map[int64]int, len(userIDs)),
		itemIndex: make(map[int64]int, len(itemIDs)),
		Rows:      make([]Vector, len(userIDs)),
		Cols:      make([]Vector, len(itemIDs)),
	}
	for i, id := range userIDs {
		m.userIndex[id] = i
		m.Rows[i] = make(Vector)
	}
	for i, id := range itemIDs {
		m.itemIndex[id] = i
		m.Cols[i] = make(Vector)
	}

	for _, in := range interactions {
		ui, uok := m.userIndex[in.UserID]
		ii, iok := m.itemIndex[in.ItemID]
		if !uok || !iok {
			continue
		}
		// Duplicate pairs keep the strongest signal.
		if in.Weight > m.Rows[ui][ii] {
			m.Rows[ui][ii] = in.Weight
			m.Cols[ii][ui] = in.Weight
		}
	}

	return m
}

// IsEmpty reports whether filtering left no users or no items.
func (m *Matrix) IsEmpty() bool {
	return len(m.UserIDs) == 0 || len(m.ItemIDs) == 0
}

// UserRow returns the sparse row for a user ID.
func (m *Matrix) UserRow(userID int64) (Vector, bool) {
	i, ok := m.userIndex[userID]
	if !ok {
		return nil, false
	}
	return m.Rows[i], true
}

// ItemIndex returns the dense index of an item ID.
func (m *Matrix) ItemIndex(itemID int64) (int, bool) {
	i, ok := m.itemIndex[itemID]
	return i, ok
}
