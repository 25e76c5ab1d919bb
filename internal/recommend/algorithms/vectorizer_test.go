// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import (
	"errors"
	"math"
	"testing"
)

// newTestVectorizer caches the segmenter dictionary across tests; the
// load takes noticeable time.
var testVectorizer *Vectorizer

func getVectorizer(t *testing.T, cfg VectorizerConfig) *Vectorizer {
	t.Helper()
	if testVectorizer == nil {
		v, err := NewVectorizer(cfg)
		if err != nil {
			t.Fatalf("NewVectorizer: %v", err)
		}
		testVectorizer = v
		return v
	}
	// Reuse the loaded dictionary with fresh limits.
	v := *testVectorizer
	v.cfg = cfg
	return &v
}

func TestTokenizeCJK(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 1, MaxDF: 1.0})

	tokens := v.Tokenize("玄幻 修炼, 热血!")
	if len(tokens) == 0 {
		t.Fatal("no tokens from CJK text")
	}
	for _, tok := range tokens {
		if tok == "," || tok == "!" || tok == " " {
			t.Errorf("punctuation leaked into tokens: %q", tokens)
		}
	}
}

func TestTokenizeMixedScript(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 1, MaxDF: 1.0})

	tokens := v.Tokenize("玄幻世界 Level99 强者")
	var sawLatin bool
	for _, tok := range tokens {
		if tok == "level99" {
			sawLatin = true
		}
	}
	if !sawLatin {
		t.Errorf("latin token not lower-cased and kept: %q", tokens)
	}
}

func TestFitTransformGenreSimilarity(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 1, MaxDF: 1.0})

	// Two 玄幻 novels sharing vocabulary, one 都市 novel.
	docs := []string{
		"玄幻 玄幻 玄幻 修炼 热血 一个少年的修炼之路",
		"玄幻 玄幻 玄幻 修炼 问道长生",
		"都市 都市 都市 职场 都市打拼的故事",
	}

	model, err := v.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	same := Cosine(model.Rows[0], model.Rows[1])
	cross1 := Cosine(model.Rows[0], model.Rows[2])
	cross2 := Cosine(model.Rows[1], model.Rows[2])

	if same <= cross1 || same <= cross2 {
		t.Errorf("same-genre similarity %v must exceed cross-genre %v, %v", same, cross1, cross2)
	}
}

func TestFitTransformRowsAreUnitNorm(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 1, MaxDF: 1.0})

	docs := []string{"玄幻 修炼 热血", "玄幻 修炼 问道"}
	model, err := v.FitTransform(docs)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range model.Rows {
		if n := Norm(row); math.Abs(n-1) > 1e-9 {
			t.Errorf("row %d norm = %v, want 1", i, n)
		}
	}
}

func TestFitTransformMinDF(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 2, MaxDF: 1.0})

	docs := []string{
		"修炼 热血",
		"修炼 问道",
		"修炼 孤词",
	}
	model, err := v.FitTransform(docs)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := model.Vocabulary["修炼"]; !ok {
		t.Error("term in all docs must survive min_df=2")
	}
	for term := range model.Vocabulary {
		if term == "热血" || term == "孤词" {
			t.Errorf("single-document term %q must be dropped by min_df=2", term)
		}
	}
}

func TestFitTransformMaxDF(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 1, MaxDF: 0.8})

	// 修炼 appears in all 5 docs: df/N = 1.0 > 0.8, dropped.
	docs := []string{
		"修炼 热血",
		"修炼 热血",
		"修炼 问道",
		"修炼 问道",
		"修炼 孤词",
	}
	model, err := v.FitTransform(docs)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := model.Vocabulary["修炼"]; ok {
		t.Error("ubiquitous term must be dropped by max_df=0.8")
	}
}

func TestFitTransformMaxFeaturesCap(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 2, MinDF: 1, MaxDF: 1.0})

	docs := []string{"热血 问道", "热血 问道 孤词"}
	model, err := v.FitTransform(docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Terms) != 2 {
		t.Errorf("vocabulary size = %d, want cap 2", len(model.Terms))
	}
}

func TestFitTransformEmptyVocabulary(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 2, MaxDF: 0.8})

	// No term reaches df>=2.
	docs := []string{"热血", "问道"}
	_, err := v.FitTransform(docs)
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("err = %v, want ErrEmptyVocabulary", err)
	}
}

func TestTermWeightsRoundtrip(t *testing.T) {
	v := getVectorizer(t, VectorizerConfig{MaxFeatures: 3000, MinDF: 1, MaxDF: 1.0})

	docs := []string{"热血 问道", "热血 孤词"}
	model, err := v.FitTransform(docs)
	if err != nil {
		t.Fatal(err)
	}

	weights := model.TermWeights(model.Rows[0])
	if len(weights) != len(model.Rows[0]) {
		t.Fatalf("weights size %d != row size %d", len(weights), len(model.Rows[0]))
	}
	for term, w := range weights {
		idx, ok := model.Vocabulary[term]
		if !ok {
			t.Errorf("unknown term %q", term)
			continue
		}
		if !almostEqual(model.Rows[0][idx], w) {
			t.Errorf("weight mismatch for %q: %v vs %v", term, w, model.Rows[0][idx])
		}
	}
}
