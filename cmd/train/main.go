package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/dataset"
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
	trainRatio := flag.Float64("train-ratio", cfg.Dataset.TrainRatio, "share of tickets used for training")
	seed := flag.Int64("seed", cfg.Dataset.Seed, "split seed")
	version := flag.String("version", cfg.Model.Version, "model version tag")
	flag.Parse()

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	tickets, err := dataset.ReadCSV(*datasetPath)
	if err != nil {
		appLogger.Fatal("Failed to read dataset", zap.Error(err))
	}

	train, holdout := dataset.Split(tickets, *trainRatio, *seed)

	appLogger.Info("Training pipeline",
		zap.Int("train", len(train)),
		zap.Int("holdout", len(holdout)),
		zap.String("model_version", *version),
	)

	pipeline, err := triage.Train(train, cfg.Model.MaxFeatures, *version)
	if err != nil {
		appLogger.Fatal("Training failed", zap.Error(err))
	}

	err = pipeline.Save(cfg.Model.Dir, cfg.Model.VectorizerFile, cfg.Model.ClassifierFile)
	if err != nil {
		appLogger.Fatal("Failed to save model artifacts", zap.Error(err))
	}

	correct := 0
	for _, tk := range holdout {
		pred, err := pipeline.Predict(tk.Subject, tk.Description)
		if err != nil {
			appLogger.Fatal("Hold-out prediction failed", zap.Error(err))
		}
		if pred.Category == tk.Category {
			correct++
		}
	}

	accuracy := 0.0
	if len(holdout) > 0 {
		accuracy = float64(correct) / float64(len(holdout))
	}

	fmt.Printf("Trained on %d tickets (vocab %d), hold-out accuracy %.2f%% (%d/%d)\n",
		len(train), pipeline.VocabSize(), accuracy*100, correct, len(holdout))
	fmt.Printf("Artifacts saved to %s\n", cfg.Model.Dir)
}
