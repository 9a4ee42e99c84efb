package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ticket-triage/backend/internal/evaluation"
	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/pkg/config"
	appLogger "github.com/ticket-triage/backend/pkg/logger"
)

// benchCases are the canonical tickets, one per category.
var benchCases = []struct {
	Subject     string
	Description string
}{
	{"Login failed", "Cannot access account with correct password"},
	{"Payment issue", "Double charge on my card"},
	{"Feature request", "Please add CSV export"},
	{"App crashes", "Bug on startup screen"},
	{"Server timeout", "Technical issue connecting to API"},
}

type caseResult struct {
	Subject    string  `json:"subject"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	MeanMS     float64 `json:"mean_ms"`
	MinMS      float64 `json:"min_ms"`
	MaxMS      float64 `json:"max_ms"`
	StdDevMS   float64 `json:"stddev_ms"`
}

type benchmarkResults struct {
	Runs              int          `json:"runs_per_case"`
	Cases             []caseResult `json:"cases"`
	MeanMS            float64      `json:"mean_ms"`
	MaxAllowedMS      float64      `json:"max_allowed_ms"`
	NormalizedLatency float64      `json:"normalized_latency"`
	LatencyPoints     float64      `json:"latency_points"`
	BenchmarkedAt     time.Time    `json:"benchmarked_at"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	runs := flag.Int("runs", 100, "timed predictions per case")
	warmup := flag.Int("warmup", 10, "untimed warmup predictions per case")
	out := flag.String("out", "./data/benchmark_results.json", "results JSON path")
	flag.Parse()

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	pipeline, err := triage.Load(cfg.Model.Dir, cfg.Model.VectorizerFile, cfg.Model.ClassifierFile)
	if err != nil {
		appLogger.Fatal("Failed to load model artifacts", zap.Error(err))
	}

	results := benchmarkResults{
		Runs:          *runs,
		MaxAllowedMS:  float64(cfg.Evaluation.MaxLatencyMs),
		BenchmarkedAt: time.Now().UTC(),
	}

	var caseMeans []float64
	for _, bc := range benchCases {
		for i := 0; i < *warmup; i++ {
			if _, err := pipeline.Predict(bc.Subject, bc.Description); err != nil {
				appLogger.Fatal("Warmup prediction failed", zap.Error(err))
			}
		}

		samples := make([]float64, *runs)
		var category string
		var confidence float64
		for i := 0; i < *runs; i++ {
			start := time.Now()
			pred, err := pipeline.Predict(bc.Subject, bc.Description)
			samples[i] = float64(time.Since(start).Nanoseconds()) / 1e6
			if err != nil {
				appLogger.Fatal("Benchmark prediction failed", zap.Error(err))
			}
			category = string(pred.Category)
			confidence = pred.Confidence
		}

		mean := stat.Mean(samples, nil)
		caseMeans = append(caseMeans, mean)
		results.Cases = append(results.Cases, caseResult{
			Subject:    bc.Subject,
			Category:   category,
			Confidence: confidence,
			MeanMS:     mean,
			MinMS:      floats.Min(samples),
			MaxMS:      floats.Max(samples),
			StdDevMS:   stat.StdDev(samples, nil),
		})
	}

	results.MeanMS = stat.Mean(caseMeans, nil)
	results.NormalizedLatency = evaluation.NormalizeLatency(
		time.Duration(results.MeanMS*float64(time.Millisecond)),
		time.Duration(cfg.Evaluation.MaxLatencyMs)*time.Millisecond,
	)
	results.LatencyPoints = results.NormalizedLatency * 10

	fmt.Printf("Latency Benchmark (%d runs per case)\n", *runs)
	fmt.Printf("====================================\n\n")
	for _, cr := range results.Cases {
		fmt.Printf("%-20s -> %-10s conf=%.3f  mean=%.3fms min=%.3fms max=%.3fms std=%.3fms\n",
			cr.Subject, cr.Category, cr.Confidence, cr.MeanMS, cr.MinMS, cr.MaxMS, cr.StdDevMS)
	}
	fmt.Printf("\nOverall mean: %.3f ms (budget %.0f ms)\n", results.MeanMS, results.MaxAllowedMS)
	fmt.Printf("Normalized latency: %.4f (%.2f points)\n", results.NormalizedLatency, results.LatencyPoints)

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		appLogger.Fatal("Failed to encode results", zap.Error(err))
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		appLogger.Fatal("Failed to write results file", zap.Error(err))
	}

	appLogger.Info("Benchmark results written", zap.String("path", *out))
}
