package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/dataset"
	"github.com/ticket-triage/backend/internal/evaluation"
	"github.com/ticket-triage/backend/internal/storage/models"
	"github.com/ticket-triage/backend/internal/storage/sqlite"
	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/pkg/config"
	appLogger "github.com/ticket-triage/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	datasetPath := flag.String("dataset", cfg.Dataset.Path, "labeled dataset CSV")
	trainRatio := flag.Float64("train-ratio", cfg.Dataset.TrainRatio, "share reserved for training; the rest is evaluated")
	seed := flag.Int64("seed", cfg.Dataset.Seed, "split seed (must match training)")
	full := flag.Bool("full", false, "evaluate the full dataset instead of the hold-out")
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

	tickets, err := dataset.ReadCSV(*datasetPath)
	if err != nil {
		appLogger.Fatal("Failed to read dataset", zap.Error(err))
	}

	testSet := tickets
	if !*full {
		_, testSet = dataset.Split(tickets, *trainRatio, *seed)
	}

	evaluator := evaluation.NewEvaluator(pipeline, evaluation.Config{
		MaxLatency: time.Duration(cfg.Evaluation.MaxLatencyMs) * time.Millisecond,
	})

	report, err := evaluator.Evaluate(testSet)
	if err != nil {
		appLogger.Fatal("Evaluation failed", zap.Error(err))
	}

	text := evaluator.GenerateReport(report)
	fmt.Print(text)

	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	err = db.InsertEvaluationRun(&models.EvaluationRun{
		Samples:           report.Samples,
		Accuracy:          report.Accuracy,
		MacroPrecision:    report.MacroPrecision,
		MacroRecall:       report.MacroRecall,
		MacroF1:           report.MacroF1,
		MeanLatencyMS:     float64(report.MeanLatency.Nanoseconds()) / 1e6,
		NormalizedLatency: report.NormalizedLatency,
		WeightedScore:     report.WeightedScore,
		Report:            text,
		CreatedAt:         report.EvaluatedAt,
	})
	if err != nil {
		appLogger.Fatal("Failed to persist evaluation run", zap.Error(err))
	}

	appLogger.Info("Evaluation run recorded",
		zap.Int("samples", report.Samples),
		zap.Float64("weighted_score", report.WeightedScore),
	)
}
