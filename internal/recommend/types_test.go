// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package recommend

import "testing"

func TestParseScope(t *testing.T) {
	tests := []struct {
		name    string
		scope   string
		want    []Algorithm
		wantErr bool
	}{
		{name: "cf", scope: "cf", want: []Algorithm{AlgorithmItemCF}},
		{name: "content", scope: "content", want: []Algorithm{AlgorithmContent}},
		{name: "all", scope: "all", want: []Algorithm{AlgorithmItemCF, AlgorithmContent}},
		{name: "empty defaults to all", scope: "", want: []Algorithm{AlgorithmItemCF, AlgorithmContent}},
		{name: "unknown", scope: "hybrid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScope(tt.scope)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScope(%q): %v", tt.scope, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestAlgorithmTags(t *testing.T) {
	if got := AlgorithmItemCF.SimilarityTag(); got != "item_cf" {
		t.Errorf("item_cf similarity tag = %q", got)
	}
	if got := AlgorithmItemCF.RecommendationTag(); got != "cf" {
		t.Errorf("item_cf recommendation tag = %q, want cf", got)
	}
	if got := AlgorithmContent.SimilarityTag(); got != "content" {
		t.Errorf("content similarity tag = %q", got)
	}
	if got := AlgorithmContent.RecommendationTag(); got != "content" {
		t.Errorf("content recommendation tag = %q", got)
	}
}
