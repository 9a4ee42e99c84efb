package bayes

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticket-triage/backend/internal/ticket"
)

// Dimensions stand for the terms: crash, invoice, export, server, password.
var (
	trainVectors = [][]float64{
		{2, 0, 0, 0, 0},
		{1.5, 0, 0, 0.5, 0},
		{0, 2, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 2, 0, 0},
		{0.5, 0, 0, 2, 0},
		{0, 0, 0, 0, 2},
	}
	trainLabels = []ticket.Category{
		ticket.CategoryBug,
		ticket.CategoryBug,
		ticket.CategoryBilling,
		ticket.CategoryBilling,
		ticket.CategoryFeature,
		ticket.CategoryTechnical,
		ticket.CategoryAccount,
	}
)

func fitted(t *testing.T) *Classifier {
	t.Helper()
	c := New("")
	require.NoError(t, c.Fit(trainVectors, trainLabels))
	return c
}

func TestPredictBeforeFit(t *testing.T) {
	_, err := New("").Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestFitValidation(t *testing.T) {
	c := New("")
	assert.Error(t, c.Fit(nil, nil))
	assert.Error(t, c.Fit([][]float64{{1}}, nil))
	assert.Error(t, c.Fit([][]float64{{1}, {1, 2}}, []ticket.Category{ticket.CategoryBug, ticket.CategoryBug}))
	assert.Error(t, c.Fit([][]float64{{1}}, []ticket.Category{"Gadget"}))
}

func TestPredictDimensionMismatch(t *testing.T) {
	c := fitted(t)
	_, err := c.Predict([]float64{1, 2})
	assert.Error(t, err)
}

func TestPredictSeparableClasses(t *testing.T) {
	c := fitted(t)

	tests := []struct {
		name string
		vec  []float64
		want ticket.Category
	}{
		{"crash heavy", []float64{3, 0, 0, 0, 0}, ticket.CategoryBug},
		{"invoice heavy", []float64{0, 3, 0, 0, 0}, ticket.CategoryBilling},
		{"export heavy", []float64{0, 0, 3, 0, 0}, ticket.CategoryFeature},
		{"server heavy", []float64{0, 0, 0, 3, 0}, ticket.CategoryTechnical},
		{"password heavy", []float64{0, 0, 0, 0, 3}, ticket.CategoryAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := c.Predict(tt.vec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred.Category)
			assert.Equal(t, pred.Confidence, pred.Probabilities[pred.Category])
		})
	}
}

func TestDistributionIsValid(t *testing.T) {
	c := fitted(t)

	for _, vec := range [][]float64{
		{3, 0, 0, 0, 0},
		{0.2, 0.7, 1.1, 0, 0.4},
		{0, 0, 0, 0, 0},
	} {
		pred, err := c.Predict(vec)
		require.NoError(t, err)

		sum := 0.0
		for _, p := range pred.Probabilities {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.Len(t, pred.Probabilities, 5)
	}
}

func TestZeroVectorFallsBackToPriors(t *testing.T) {
	c := fitted(t)

	pred, err := c.Predict([]float64{0, 0, 0, 0, 0})
	require.NoError(t, err)

	// With no feature evidence the distribution is exactly the priors:
	// 2/7 Bug, 2/7 Billing, 1/7 each for the rest.
	assert.InDelta(t, 2.0/7.0, pred.Probabilities[ticket.CategoryBug], 1e-9)
	assert.InDelta(t, 2.0/7.0, pred.Probabilities[ticket.CategoryBilling], 1e-9)
	assert.InDelta(t, 1.0/7.0, pred.Probabilities[ticket.CategoryFeature], 1e-9)
	assert.InDelta(t, 1.0/7.0, pred.Probabilities[ticket.CategoryTechnical], 1e-9)
	assert.InDelta(t, 1.0/7.0, pred.Probabilities[ticket.CategoryAccount], 1e-9)
	// Bug and Billing tie; canonical order breaks the tie.
	assert.Equal(t, ticket.CategoryBug, pred.Category)
}

func TestPredictIsDeterministic(t *testing.T) {
	c := fitted(t)
	vec := []float64{0.9, 0.4, 0, 1.2, 0.1}

	first, err := c.Predict(vec)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Predict(vec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMissingClassGetsZeroProbability(t *testing.T) {
	c := New("")
	require.NoError(t, c.Fit(
		[][]float64{{2, 0}, {0, 2}},
		[]ticket.Category{ticket.CategoryBug, ticket.CategoryBilling},
	))

	pred, err := c.Predict([]float64{1, 1})
	require.NoError(t, err)

	sum := 0.0
	for _, p := range pred.Probabilities {
		require.False(t, math.IsNaN(p))
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Zero(t, pred.Probabilities[ticket.CategoryFeature])
	assert.Zero(t, pred.Probabilities[ticket.CategoryTechnical])
	assert.Zero(t, pred.Probabilities[ticket.CategoryAccount])
}

func TestLaplaceSmoothingHandlesUnseenTerms(t *testing.T) {
	c := fitted(t)

	// Dimension 4 never occurs in Bug training docs; the smoothed
	// likelihood must still leave Bug with a positive probability.
	pred, err := c.Predict([]float64{0, 0, 0, 0, 5})
	require.NoError(t, err)
	assert.Greater(t, pred.Probabilities[ticket.CategoryBug], 0.0)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifier.json")

	c := fitted(t)
	vec := []float64{1.3, 0, 0.2, 0.9, 0}
	original, err := c.Predict(vec)
	require.NoError(t, err)
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.Version(), loaded.Version())
	assert.Equal(t, c.VocabSize(), loaded.VocabSize())
	assert.Equal(t, c.TrainingSize(), loaded.TrainingSize())

	restored, err := loaded.Predict(vec)
	require.NoError(t, err)
	assert.Equal(t, original.Category, restored.Category)
	assert.InDelta(t, original.Confidence, restored.Confidence, 1e-12)
	for cat, p := range original.Probabilities {
		assert.InDelta(t, p, restored.Probabilities[cat], 1e-12)
	}
}

func TestSaveUnfitted(t *testing.T) {
	assert.ErrorIs(t, New("").Save(filepath.Join(t.TempDir(), "c.json")), ErrNotFitted)
}
