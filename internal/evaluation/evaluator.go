package evaluation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/ticket-triage/backend/internal/ticket"
	"github.com/ticket-triage/backend/pkg/logger"
)

// DefaultMaxLatency bounds the latency normalization: a mean prediction
// time at or above it scores zero.
const DefaultMaxLatency = 100 * time.Millisecond

// Weights of the combined score. Accuracy dominates, latency is a small
// tiebreaker between otherwise similar models.
const (
	weightAccuracy  = 0.40
	weightPrecision = 0.15
	weightRecall    = 0.15
	weightF1        = 0.20
	weightLatency   = 0.10
)

// Predictor runs the classification pipeline for a single ticket.
type Predictor interface {
	Predict(subject, description string) (ticket.Prediction, error)
}

type Config struct {
	MaxLatency time.Duration
}

type Evaluator struct {
	predictor  Predictor
	maxLatency time.Duration
}

func NewEvaluator(predictor Predictor, cfg Config) *Evaluator {
	maxLatency := cfg.MaxLatency
	if maxLatency <= 0 {
		maxLatency = DefaultMaxLatency
	}
	return &Evaluator{
		predictor:  predictor,
		maxLatency: maxLatency,
	}
}

type CategoryReport struct {
	Category  ticket.Category `json:"category"`
	Support   int             `json:"support"`
	Predicted int             `json:"predicted"`
	Correct   int             `json:"correct"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
}

type Report struct {
	Samples           int              `json:"samples"`
	Correct           int              `json:"correct"`
	Accuracy          float64          `json:"accuracy"`
	MacroPrecision    float64          `json:"macro_precision"`
	MacroRecall       float64          `json:"macro_recall"`
	MacroF1           float64          `json:"macro_f1"`
	MeanLatency       time.Duration    `json:"mean_latency_ns"`
	MaxLatencyAllowed time.Duration    `json:"max_latency_allowed_ns"`
	NormalizedLatency float64          `json:"normalized_latency"`
	WeightedScore     float64          `json:"weighted_score"`
	Categories        []CategoryReport `json:"categories"`
	EvaluatedAt       time.Time        `json:"evaluated_at"`
}

// Evaluate predicts every labeled ticket, accumulates the confusion counts,
// and derives accuracy, macro precision/recall/F1, mean latency, and the
// combined 0-100 score. Categories that were never predicted contribute zero
// precision; categories absent from the set contribute zero recall.
func (e *Evaluator) Evaluate(tickets []ticket.Ticket) (*Report, error) {
	if len(tickets) == 0 {
		return nil, errors.New("empty evaluation set")
	}

	logger.Info("Running evaluation", zap.Int("samples", len(tickets)))

	support := make(map[ticket.Category]int)
	predicted := make(map[ticket.Category]int)
	correct := make(map[ticket.Category]int)

	totalCorrect := 0
	var totalLatency time.Duration

	for i, tk := range tickets {
		if !tk.Category.Valid() {
			return nil, fmt.Errorf("ticket %d has no valid label: %q", i, tk.Category)
		}

		start := time.Now()
		pred, err := e.predictor.Predict(tk.Subject, tk.Description)
		totalLatency += time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("prediction failed on ticket %d: %w", i, err)
		}

		support[tk.Category]++
		predicted[pred.Category]++
		if pred.Category == tk.Category {
			correct[tk.Category]++
			totalCorrect++
		}
	}

	categories := ticket.Categories()
	perCategory := make([]CategoryReport, 0, len(categories))
	precisions := make([]float64, 0, len(categories))
	recalls := make([]float64, 0, len(categories))
	f1s := make([]float64, 0, len(categories))

	for _, c := range categories {
		cr := CategoryReport{
			Category:  c,
			Support:   support[c],
			Predicted: predicted[c],
			Correct:   correct[c],
		}
		if cr.Predicted > 0 {
			cr.Precision = float64(cr.Correct) / float64(cr.Predicted)
		}
		if cr.Support > 0 {
			cr.Recall = float64(cr.Correct) / float64(cr.Support)
		}
		if cr.Precision+cr.Recall > 0 {
			cr.F1 = 2 * cr.Precision * cr.Recall / (cr.Precision + cr.Recall)
		}
		perCategory = append(perCategory, cr)
		precisions = append(precisions, cr.Precision)
		recalls = append(recalls, cr.Recall)
		f1s = append(f1s, cr.F1)
	}

	n := float64(len(categories))
	report := &Report{
		Samples:           len(tickets),
		Correct:           totalCorrect,
		Accuracy:          float64(totalCorrect) / float64(len(tickets)),
		MacroPrecision:    floats.Sum(precisions) / n,
		MacroRecall:       floats.Sum(recalls) / n,
		MacroF1:           floats.Sum(f1s) / n,
		MeanLatency:       totalLatency / time.Duration(len(tickets)),
		MaxLatencyAllowed: e.maxLatency,
		Categories:        perCategory,
		EvaluatedAt:       time.Now().UTC(),
	}
	report.NormalizedLatency = NormalizeLatency(report.MeanLatency, e.maxLatency)
	report.WeightedScore = weightedScore(report)

	logger.Info("Evaluation completed",
		zap.Int("samples", report.Samples),
		zap.Float64("accuracy", report.Accuracy),
		zap.Float64("macro_f1", report.MacroF1),
		zap.Float64("weighted_score", report.WeightedScore),
	)

	return report, nil
}

// NormalizeLatency maps a mean latency onto [0, 1]: zero latency scores 1,
// anything at or beyond the allowed maximum scores 0.
func NormalizeLatency(mean, maxAllowed time.Duration) float64 {
	if maxAllowed <= 0 {
		return 0
	}
	score := 1 - float64(mean)/float64(maxAllowed)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func weightedScore(r *Report) float64 {
	score := weightAccuracy*r.Accuracy +
		weightPrecision*r.MacroPrecision +
		weightRecall*r.MacroRecall +
		weightF1*r.MacroF1 +
		weightLatency*r.NormalizedLatency
	return score * 100
}

func (e *Evaluator) GenerateReport(report *Report) string {
	var categoryLines strings.Builder
	for _, c := range report.Categories {
		categoryLines.WriteString(fmt.Sprintf("- %-10s support=%-4d predicted=%-4d precision=%.3f recall=%.3f f1=%.3f\n",
			c.Category, c.Support, c.Predicted, c.Precision, c.Recall, c.F1))
	}

	return fmt.Sprintf(`
Evaluation Report
=================

Samples Evaluated: %d
Correct Predictions: %d

Overall Metrics:
- Accuracy: %.2f%%
- Macro Precision: %.2f%%
- Macro Recall: %.2f%%
- Macro F1: %.2f%%

Latency:
- Mean: %.3f ms (budget %.0f ms)
- Normalized: %.4f

Per-Category:
%s
Weighted Score: %.2f / 100
(40%% accuracy, 15%% precision, 15%% recall, 20%% F1, 10%% latency)
`,
		report.Samples,
		report.Correct,
		report.Accuracy*100,
		report.MacroPrecision*100,
		report.MacroRecall*100,
		report.MacroF1*100,
		float64(report.MeanLatency.Nanoseconds())/1e6,
		float64(report.MaxLatencyAllowed.Nanoseconds())/1e6,
		report.NormalizedLatency,
		categoryLines.String(),
		report.WeightedScore,
	)
}
