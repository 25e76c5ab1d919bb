// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// ErrEmptyVocabulary is returned by FitTransform when document
// frequency filtering leaves no terms.
var ErrEmptyVocabulary = errors.New("empty vocabulary after document frequency filtering")

// VectorizerConfig bounds the TF-IDF vocabulary.
type VectorizerConfig struct {
	// MaxFeatures caps the vocabulary size. Candidates are ranked by
	// total corpus term count; ties break lexicographically.
	MaxFeatures int

	// MinDF drops terms appearing in fewer documents.
	MinDF int

	// MaxDF drops terms appearing in more than this fraction of
	// documents.
	MaxDF float64
}

// Vectorizer turns free text into sparse TF-IDF vectors. Chinese text
// is segmented with gse; mixed-script catalogs work because gse passes
// Latin tokens through.
type Vectorizer struct {
	cfg VectorizerConfig
	seg gse.Segmenter
}

// NewVectorizer creates a vectorizer with the embedded default
// dictionary loaded.
func NewVectorizer(cfg VectorizerConfig) (*Vectorizer, error) {
	v := &Vectorizer{cfg: cfg}
	if err := v.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("load segmentation dictionary: %w", err)
	}
	return v, nil
}

// TFIDFModel is a fitted vocabulary plus the transformed corpus.
type TFIDFModel struct {
	// Vocabulary maps a term to its dense dimension index.
	Vocabulary map[string]int

	// Terms is the inverse mapping: index to term.
	Terms []string

	// IDF holds the smoothed inverse document frequency per dimension.
	IDF []float64

	// Rows holds one L2-normalized TF-IDF vector per input document,
	// in input order.
	Rows []Vector
}

// Tokenize segments text into lower-cased unigram tokens, dropping
// punctuation and whitespace runs.
func (v *Vectorizer) Tokenize(text string) []string {
	cut := v.seg.Cut(text, true)
	tokens := make([]string, 0, len(cut))
	for _, tok := range cut {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || !hasWordRune(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// hasWordRune reports whether the token contains at least one letter,
// digit or Han character.
func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// terms produces the unigram and bigram terms of a document.
func (v *Vectorizer) terms(text string) []string {
	tokens := v.Tokenize(text)
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// FitTransform builds the vocabulary over the corpus and returns the
// fitted model with every document transformed.
//
// Document frequency filtering keeps terms with MinDF <= df and
// df/N <= MaxDF. The survivors are capped to MaxFeatures by total
// corpus count, and dimensions are assigned in lexicographic term
// order so repeated runs over the same corpus produce identical
// models. IDF is smoothed: ln((1+N)/(1+df)) + 1.
func (v *Vectorizer) FitTransform(docs []string) (*TFIDFModel, error) {
	n := len(docs)
	docTerms := make([]map[string]int, n)
	df := make(map[string]int)
	totalCounts := make(map[string]int64)

	for i, doc := range docs {
		counts := make(map[string]int)
		for _, term := range v.terms(doc) {
			counts[term]++
			totalCounts[term]++
		}
		docTerms[i] = counts
		for term := range counts {
			df[term]++
		}
	}

	candidates := make([]string, 0, len(df))
	for term, d := range df {
		if d < v.cfg.MinDF {
			continue
		}
		if float64(d) > v.cfg.MaxDF*float64(n) {
			continue
		}
		candidates = append(candidates, term)
	}
	if len(candidates) == 0 {
		return nil, ErrEmptyVocabulary
	}

	if v.cfg.MaxFeatures > 0 && len(candidates) > v.cfg.MaxFeatures {
		sort.Slice(candidates, func(i, j int) bool {
			if totalCounts[candidates[i]] != totalCounts[candidates[j]] {
				return totalCounts[candidates[i]] > totalCounts[candidates[j]]
			}
			return candidates[i] < candidates[j]
		})
		candidates = candidates[:v.cfg.MaxFeatures]
	}
	sort.Strings(candidates)

	model := &TFIDFModel{
		Vocabulary: make(map[string]int, len(candidates)),
		Terms:      candidates,
		IDF:        make([]float64, len(candidates)),
		Rows:       make([]Vector, n),
	}
	for idx, term := range candidates {
		model.Vocabulary[term] = idx
		model.IDF[idx] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	for i, counts := range docTerms {
		row := make(Vector)
		for term, count := range counts {
			if idx, ok := model.Vocabulary[term]; ok {
				row[idx] = float64(count) * model.IDF[idx]
			}
		}
		model.Rows[i] = Normalize(row)
	}

	return model, nil
}

// TermWeights converts a document row back into term-keyed weights for
// persistence.
func (m *TFIDFModel) TermWeights(row Vector) map[string]float64 {
	out := make(map[string]float64, len(row))
	for idx, w := range row {
		out[m.Terms[idx]] = w
	}
	return out
}
