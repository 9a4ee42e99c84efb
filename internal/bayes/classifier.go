// Package bayes implements the multinomial Naive Bayes category model.
// Likelihoods are estimated from TF-IDF feature mass with Laplace smoothing,
// so unseen terms never zero out a category.
package bayes

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/ticket-triage/backend/internal/ticket"
)

const DefaultVersion = "1.0.0"

// ErrNotFitted is returned when Predict runs before Fit or Load.
var ErrNotFitted = errors.New("classifier not fitted")

// Classifier holds the fitted model: one prior and one per-term likelihood
// row per category. Immutable after Fit; Predict is safe for concurrent use.
type Classifier struct {
	classes       []ticket.Category
	docCounts     []int
	featureTotals [][]float64
	logPriors     []float64
	logLikelihood [][]float64
	vocabSize     int
	version       string
	trainedAt     time.Time
	fitted        bool
}

func New(version string) *Classifier {
	if version == "" {
		version = DefaultVersion
	}
	return &Classifier{version: version}
}

// Fit estimates priors and smoothed likelihoods from labeled feature
// vectors. Vectors must all share the vectorizer's dimension.
func (c *Classifier) Fit(vectors [][]float64, labels []ticket.Category) error {
	if len(vectors) == 0 {
		return errors.New("empty training set")
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("got %d vectors for %d labels", len(vectors), len(labels))
	}

	classes := ticket.Categories()
	classIndex := make(map[ticket.Category]int, len(classes))
	for i, cl := range classes {
		classIndex[cl] = i
	}

	vocabSize := len(vectors[0])
	docCounts := make([]int, len(classes))
	featureTotals := make([][]float64, len(classes))
	for i := range featureTotals {
		featureTotals[i] = make([]float64, vocabSize)
	}

	for d, vec := range vectors {
		if len(vec) != vocabSize {
			return fmt.Errorf("vector %d has dimension %d, want %d", d, len(vec), vocabSize)
		}
		ci, ok := classIndex[labels[d]]
		if !ok {
			return fmt.Errorf("unknown category: %q", labels[d])
		}
		docCounts[ci]++
		floats.Add(featureTotals[ci], vec)
	}

	c.classes = classes
	c.docCounts = docCounts
	c.featureTotals = featureTotals
	c.vocabSize = vocabSize
	c.trainedAt = time.Now().UTC()
	c.computeLogParams()
	c.fitted = true

	return nil
}

// computeLogParams derives the log-space parameters from doc counts and
// feature totals. A category absent from training keeps a -Inf log-prior and
// ends up with probability zero, never an error.
func (c *Classifier) computeLogParams() {
	total := 0
	for _, n := range c.docCounts {
		total += n
	}

	c.logPriors = make([]float64, len(c.classes))
	c.logLikelihood = make([][]float64, len(c.classes))
	for i := range c.classes {
		c.logPriors[i] = math.Log(float64(c.docCounts[i]) / float64(total))

		classTotal := floats.Sum(c.featureTotals[i])
		denom := classTotal + float64(c.vocabSize)
		row := make([]float64, c.vocabSize)
		for t := 0; t < c.vocabSize; t++ {
			row[t] = math.Log((c.featureTotals[i][t] + 1) / denom)
		}
		c.logLikelihood[i] = row
	}
}

// Predict scores a feature vector against every category and returns the
// winner with the full softmax-normalized distribution. A zero vector
// degrades to the training priors.
func (c *Classifier) Predict(vec []float64) (ticket.Prediction, error) {
	if !c.fitted {
		return ticket.Prediction{}, ErrNotFitted
	}
	if len(vec) != c.vocabSize {
		return ticket.Prediction{}, fmt.Errorf("vector has dimension %d, want %d", len(vec), c.vocabSize)
	}

	scores := make([]float64, len(c.classes))
	for i := range c.classes {
		scores[i] = c.logPriors[i] + floats.Dot(vec, c.logLikelihood[i])
	}

	// Softmax with max subtraction keeps the exponentials in range.
	max := floats.Max(scores)
	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = math.Exp(s - max)
	}
	sum := floats.Sum(probs)
	floats.Scale(1/sum, probs)

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}

	distribution := make(map[ticket.Category]float64, len(c.classes))
	for i, cl := range c.classes {
		distribution[cl] = probs[i]
	}

	return ticket.Prediction{
		Category:      c.classes[best],
		Confidence:    probs[best],
		Probabilities: distribution,
	}, nil
}

func (c *Classifier) Fitted() bool {
	return c.fitted
}

func (c *Classifier) Classes() []ticket.Category {
	out := make([]ticket.Category, len(c.classes))
	copy(out, c.classes)
	return out
}

func (c *Classifier) VocabSize() int {
	return c.vocabSize
}

func (c *Classifier) Version() string {
	return c.version
}

func (c *Classifier) TrainedAt() time.Time {
	return c.trainedAt
}

// TrainingSize is the number of labeled documents the model was fit on.
func (c *Classifier) TrainingSize() int {
	total := 0
	for _, n := range c.docCounts {
		total += n
	}
	return total
}

type savedModel struct {
	Version       string      `json:"version"`
	TrainedAt     time.Time   `json:"trained_at"`
	Classes       []string    `json:"classes"`
	DocCounts     []int       `json:"doc_counts"`
	VocabSize     int         `json:"vocab_size"`
	FeatureTotals [][]float64 `json:"feature_totals"`
}

func (c *Classifier) Save(path string) error {
	if !c.fitted {
		return ErrNotFitted
	}

	classes := make([]string, len(c.classes))
	for i, cl := range c.classes {
		classes[i] = cl.String()
	}

	data, err := json.MarshalIndent(savedModel{
		Version:       c.version,
		TrainedAt:     c.trainedAt,
		Classes:       classes,
		DocCounts:     c.docCounts,
		VocabSize:     c.vocabSize,
		FeatureTotals: c.featureTotals,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	return nil
}

func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var saved savedModel
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if len(saved.Classes) != len(saved.DocCounts) || len(saved.Classes) != len(saved.FeatureTotals) {
		return nil, errors.New("corrupt model file: class count mismatch")
	}

	c := New(saved.Version)
	c.classes = make([]ticket.Category, len(saved.Classes))
	for i, s := range saved.Classes {
		cat, err := ticket.ParseCategory(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt model file: %w", err)
		}
		c.classes[i] = cat
	}
	for i, row := range saved.FeatureTotals {
		if len(row) != saved.VocabSize {
			return nil, fmt.Errorf("corrupt model file: row %d has %d features, want %d", i, len(row), saved.VocabSize)
		}
	}
	c.docCounts = saved.DocCounts
	c.featureTotals = saved.FeatureTotals
	c.vocabSize = saved.VocabSize
	c.trainedAt = saved.TrainedAt
	c.computeLogParams()
	c.fitted = true

	return c, nil
}
