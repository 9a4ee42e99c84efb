// Package vectorizer turns normalized ticket text into fixed-length TF-IDF
// vectors over a vocabulary learned once at training time.
package vectorizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/ticket-triage/backend/internal/textnorm"
)

const DefaultMaxFeatures = 1000

// ErrNotFitted is returned when Transform runs before Fit or Load.
var ErrNotFitted = errors.New("vectorizer not fitted")

// Vectorizer holds the fitted vocabulary: term→dimension mapping plus the
// per-term document frequencies and corpus size needed for IDF weighting.
// Immutable after Fit; Transform is safe for concurrent use.
type Vectorizer struct {
	maxFeatures int
	terms       []string
	index       map[string]int
	docFreq     []int
	docCount    int
	fitted      bool
}

func New(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{maxFeatures: maxFeatures}
}

// Fit builds the vocabulary from normalized training texts. When more than
// maxFeatures distinct terms exist, the most frequent across the corpus win,
// ties broken alphabetically. Dimension indices follow sorted term order so
// refitting the same corpus always yields the same mapping.
func (v *Vectorizer) Fit(texts []string) error {
	if len(texts) == 0 {
		return errors.New("empty training corpus")
	}

	docFreq := make(map[string]int)
	corpusFreq := make(map[string]int)
	for _, text := range texts {
		counts := termCounts(textnorm.Tokens(text))
		for term, n := range counts {
			docFreq[term]++
			corpusFreq[term] += n
		}
	}

	selected := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		selected = append(selected, term)
	}
	sort.Slice(selected, func(i, j int) bool {
		if corpusFreq[selected[i]] != corpusFreq[selected[j]] {
			return corpusFreq[selected[i]] > corpusFreq[selected[j]]
		}
		return selected[i] < selected[j]
	})
	if len(selected) > v.maxFeatures {
		selected = selected[:v.maxFeatures]
	}
	sort.Strings(selected)

	v.terms = selected
	v.index = make(map[string]int, len(selected))
	v.docFreq = make([]int, len(selected))
	for i, term := range selected {
		v.index[term] = i
		v.docFreq[i] = docFreq[term]
	}
	v.docCount = len(texts)
	v.fitted = true

	return nil
}

// Transform maps normalized text to a TF-IDF vector: dimension i holds
// tf(term_i) * log(N / df(term_i)). Terms outside the vocabulary contribute
// nothing.
func (v *Vectorizer) Transform(text string) ([]float64, error) {
	if !v.fitted {
		return nil, ErrNotFitted
	}

	vec := make([]float64, len(v.terms))
	for term, n := range termCounts(textnorm.Tokens(text)) {
		i, ok := v.index[term]
		if !ok {
			continue
		}
		idf := math.Log(float64(v.docCount) / float64(v.docFreq[i]))
		vec[i] = float64(n) * idf
	}

	return vec, nil
}

func (v *Vectorizer) Fitted() bool {
	return v.fitted
}

// VocabSize is the vector dimension; zero before fitting.
func (v *Vectorizer) VocabSize() int {
	return len(v.terms)
}

func (v *Vectorizer) DocCount() int {
	return v.docCount
}

// Vocabulary returns the fitted terms in dimension order.
func (v *Vectorizer) Vocabulary() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

type savedVocabulary struct {
	MaxFeatures int      `json:"max_features"`
	DocCount    int      `json:"doc_count"`
	Terms       []string `json:"terms"`
	DocFreq     []int    `json:"doc_freq"`
}

func (v *Vectorizer) Save(path string) error {
	if !v.fitted {
		return ErrNotFitted
	}

	data, err := json.MarshalIndent(savedVocabulary{
		MaxFeatures: v.maxFeatures,
		DocCount:    v.docCount,
		Terms:       v.terms,
		DocFreq:     v.docFreq,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vocabulary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vocabulary file: %w", err)
	}

	return nil
}

func Load(path string) (*Vectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var saved savedVocabulary
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}
	if len(saved.Terms) != len(saved.DocFreq) {
		return nil, fmt.Errorf("corrupt vocabulary file: %d terms, %d frequencies", len(saved.Terms), len(saved.DocFreq))
	}
	if saved.DocCount <= 0 {
		return nil, fmt.Errorf("corrupt vocabulary file: doc count %d", saved.DocCount)
	}

	v := New(saved.MaxFeatures)
	v.terms = saved.Terms
	v.index = make(map[string]int, len(saved.Terms))
	for i, term := range saved.Terms {
		v.index[term] = i
	}
	v.docFreq = saved.DocFreq
	v.docCount = saved.DocCount
	v.fitted = true

	return v, nil
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}
