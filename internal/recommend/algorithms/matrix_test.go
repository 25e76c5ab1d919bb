// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import "testing"

func TestBuildMatrixFiltersBothAxes(t *testing.T) {
	interactions := []Interaction{
		{UserID: 1, ItemID: 10, Weight: 0.8},
		{UserID: 1, ItemID: 11, Weight: 0.5},
		{UserID: 2, ItemID: 10, Weight: 0.5},
		{UserID: 2, ItemID: 12, Weight: 0.8},
		{UserID: 3, ItemID: 12, Weight: 0.2}, // single interaction: dropped
	}

	m := BuildMatrix(interactions, 2)

	if len(m.UserIDs) != 2 {
		t.Fatalf("users = %v, want [1 2]", m.UserIDs)
	}
	if m.UserIDs[0] != 1 || m.UserIDs[1] != 2 {
		t.Errorf("users = %v, want [1 2]", m.UserIDs)
	}
	// Item 10 has two interactions; 11 and 12 have one and two
	// respectively (item 12 counts user 3's raw interaction).
	if len(m.ItemIDs) != 2 || m.ItemIDs[0] != 10 || m.ItemIDs[1] != 12 {
		t.Errorf("items = %v, want [10 12]", m.ItemIDs)
	}
}

func TestBuildMatrixSinglePassKeepsSparseRows(t *testing.T) {
	// User 1 qualifies with two interactions, but item 11 is dropped.
	// The single-pass filter keeps user 1 with only one surviving
	// entry instead of re-filtering.
	interactions := []Interaction{
		{UserID: 1, ItemID: 10, Weight: 0.8},
		{UserID: 1, ItemID: 11, Weight: 0.5},
		{UserID: 2, ItemID: 10, Weight: 0.5},
		{UserID: 2, ItemID: 12, Weight: 0.8},
		{UserID: 3, ItemID: 12, Weight: 0.2},
	}

	m := BuildMatrix(interactions, 2)

	row, ok := m.UserRow(1)
	if !ok {
		t.Fatal("user 1 missing from matrix")
	}
	if len(row) != 1 {
		t.Fatalf("user 1 row = %v, want exactly the surviving item 10", row)
	}
	idx, ok := m.ItemIndex(10)
	if !ok {
		t.Fatal("item 10 missing from matrix")
	}
	if row[idx] != 0.8 {
		t.Errorf("row weight = %v, want 0.8", row[idx])
	}
}

func TestBuildMatrixRawCountsNotRecomputed(t *testing.T) {
	// Item 12's count includes user 3's interaction even though user 3
	// is filtered out. Iterative re-filtering would drop item 12 too;
	// the single pass keeps it.
	interactions := []Interaction{
		{UserID: 1, ItemID: 10, Weight: 0.8},
		{UserID: 1, ItemID: 12, Weight: 0.5},
		{UserID: 2, ItemID: 10, Weight: 0.5},
		{UserID: 2, ItemID: 11, Weight: 0.8},
		{UserID: 3, ItemID: 12, Weight: 0.2},
	}

	m := BuildMatrix(interactions, 2)

	if _, ok := m.ItemIndex(12); !ok {
		t.Error("item 12 should survive: its raw count is 2")
	}
	col12idx, _ := m.ItemIndex(12)
	if len(m.Cols[col12idx]) != 1 {
		t.Errorf("item 12 column = %v, want only user 1's entry", m.Cols[col12idx])
	}
}

func TestBuildMatrixEmpty(t *testing.T) {
	tests := []struct {
		name         string
		interactions []Interaction
		min          int
	}{
		{"no input", nil, 2},
		{"all below threshold", []Interaction{
			{UserID: 1, ItemID: 10, Weight: 0.8},
			{UserID: 2, ItemID: 11, Weight: 0.5},
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildMatrix(tt.interactions, tt.min)
			if !m.IsEmpty() {
				t.Errorf("matrix should be empty, got %d users %d items",
					len(m.UserIDs), len(m.ItemIDs))
			}
		})
	}
}

func TestBuildMatrixDuplicatePairKeepsStrongest(t *testing.T) {
	interactions := []Interaction{
		{UserID: 1, ItemID: 10, Weight: 0.16},
		{UserID: 1, ItemID: 10, Weight: 0.8},
		{UserID: 2, ItemID: 10, Weight: 0.5},
		{UserID: 1, ItemID: 11, Weight: 0.5},
		{UserID: 2, ItemID: 11, Weight: 0.5},
	}

	m := BuildMatrix(interactions, 2)

	row, _ := m.UserRow(1)
	idx, _ := m.ItemIndex(10)
	if row[idx] != 0.8 {
		t.Errorf("duplicate pair weight = %v, want max 0.8", row[idx])
	}
}
