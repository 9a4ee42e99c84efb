// Package triage runs the classification pipeline end to end: normalize,
// vectorize, predict, route, and record. The Pipeline is the fitted model
// pair; the Service wraps it with storage, caching, and dispatch.
package triage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/bayes"
	"github.com/ticket-triage/backend/internal/textnorm"
	"github.com/ticket-triage/backend/internal/ticket"
	"github.com/ticket-triage/backend/internal/vectorizer"
	"github.com/ticket-triage/backend/pkg/logger"
)

// Pipeline pairs a fitted vectorizer with a fitted classifier. It is
// immutable after construction and safe for concurrent use.
type Pipeline struct {
	vectorizer *vectorizer.Vectorizer
	classifier *bayes.Classifier
}

func NewPipeline(v *vectorizer.Vectorizer, c *bayes.Classifier) (*Pipeline, error) {
	if v == nil || c == nil {
		return nil, errors.New("pipeline requires both a vectorizer and a classifier")
	}
	if !v.Fitted() {
		return nil, errors.New("vectorizer is not fitted")
	}
	if !c.Fitted() {
		return nil, errors.New("classifier is not fitted")
	}
	if v.VocabSize() != c.VocabSize() {
		return nil, fmt.Errorf("vocabulary mismatch: vectorizer has %d terms, classifier expects %d", v.VocabSize(), c.VocabSize())
	}

	return &Pipeline{vectorizer: v, classifier: c}, nil
}

// Train fits a fresh pipeline on labeled tickets.
func Train(tickets []ticket.Ticket, maxFeatures int, version string) (*Pipeline, error) {
	if len(tickets) == 0 {
		return nil, errors.New("no training tickets")
	}

	corpus := make([]string, len(tickets))
	labels := make([]ticket.Category, len(tickets))
	for i, t := range tickets {
		if !t.Category.Valid() {
			return nil, fmt.Errorf("ticket %d has no valid category label", t.ID)
		}
		corpus[i] = textnorm.Normalize(t.Subject, t.Description)
		labels[i] = t.Category
	}

	v := vectorizer.New(maxFeatures)
	if err := v.Fit(corpus); err != nil {
		return nil, fmt.Errorf("failed to fit vectorizer: %w", err)
	}

	vectors := make([][]float64, len(corpus))
	for i, text := range corpus {
		vec, err := v.Transform(text)
		if err != nil {
			return nil, fmt.Errorf("failed to vectorize training ticket %d: %w", tickets[i].ID, err)
		}
		vectors[i] = vec
	}

	c := bayes.New(version)
	if err := c.Fit(vectors, labels); err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}

	logger.Info("Pipeline trained",
		zap.Int("samples", len(tickets)),
		zap.Int("vocab_size", v.VocabSize()),
		zap.String("model_version", version),
	)

	return &Pipeline{vectorizer: v, classifier: c}, nil
}

// Predict classifies one ticket text. Empty or fully out-of-vocabulary input
// degrades to the class priors rather than erroring.
func (p *Pipeline) Predict(subject, description string) (ticket.Prediction, error) {
	pred, _, err := p.Classify(subject, description)
	return pred, err
}

// Classify returns both the prediction and the TF-IDF vector it was scored
// from, so callers can index the vector without transforming twice.
func (p *Pipeline) Classify(subject, description string) (ticket.Prediction, []float64, error) {
	vec, err := p.Vector(subject, description)
	if err != nil {
		return ticket.Prediction{}, nil, err
	}

	pred, err := p.classifier.Predict(vec)
	if err != nil {
		return ticket.Prediction{}, nil, err
	}

	return pred, vec, nil
}

// Vector normalizes the ticket text and maps it into TF-IDF feature space.
func (p *Pipeline) Vector(subject, description string) ([]float64, error) {
	return p.vectorizer.Transform(textnorm.Normalize(subject, description))
}

func (p *Pipeline) VocabSize() int {
	return p.vectorizer.VocabSize()
}

func (p *Pipeline) Version() string {
	return p.classifier.Version()
}

func (p *Pipeline) TrainedAt() time.Time {
	return p.classifier.TrainedAt()
}

func (p *Pipeline) TrainingSize() int {
	return p.classifier.TrainingSize()
}

// Save writes both model artifacts under dir, creating it if needed.
func (p *Pipeline) Save(dir, vectorizerFile, classifierFile string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := p.vectorizer.Save(filepath.Join(dir, vectorizerFile)); err != nil {
		return fmt.Errorf("failed to save vectorizer: %w", err)
	}
	if err := p.classifier.Save(filepath.Join(dir, classifierFile)); err != nil {
		return fmt.Errorf("failed to save classifier: %w", err)
	}

	logger.Info("Model artifacts saved", zap.String("dir", dir))
	return nil
}

// Load reads both model artifacts from dir.
func Load(dir, vectorizerFile, classifierFile string) (*Pipeline, error) {
	v, err := vectorizer.Load(filepath.Join(dir, vectorizerFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load vectorizer: %w", err)
	}
	c, err := bayes.Load(filepath.Join(dir, classifierFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}

	return NewPipeline(v, c)
}
