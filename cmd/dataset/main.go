package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/dataset"
	"github.com/ticket-triage/backend/pkg/config"
	appLogger "github.com/ticket-triage/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	out := flag.String("out", cfg.Dataset.Path, "output CSV path")
	seed := flag.Int64("seed", cfg.Dataset.Seed, "generator seed")
	perCategory := flag.Int("per-category", cfg.Dataset.PerCategory, "tickets per category")
	verifyOnly := flag.Bool("verify", false, "verify an existing dataset instead of generating")
	flag.Parse()

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	if *verifyOnly {
		verify(*out, *perCategory)
		return
	}

	tickets := dataset.Generate(dataset.GeneratorConfig{
		Seed:        *seed,
		PerCategory: *perCategory,
	})

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		appLogger.Fatal("Failed to create output directory", zap.Error(err))
	}
	if err := dataset.WriteCSV(*out, tickets); err != nil {
		appLogger.Fatal("Failed to write dataset", zap.Error(err))
	}

	appLogger.Info("Dataset written",
		zap.String("path", *out),
		zap.Int("tickets", len(tickets)),
	)

	verify(*out, *perCategory)
}

func verify(path string, perCategory int) {
	tickets, err := dataset.ReadCSV(path)
	if err != nil {
		appLogger.Fatal("Failed to read dataset", zap.Error(err))
	}

	result := dataset.Verify(tickets, perCategory)
	fmt.Print(result.Summary())

	if !result.OK() {
		os.Exit(1)
	}
}
