package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"esltrainer/internal/app"
	"esltrainer/internal/config"
	"esltrainer/internal/importer"
)

func main() {
	xlsxPath := flag.String("xlsx", "", "path to an .xlsx vocabulary sheet to import")
	sheet := flag.String("sheet", "", "sheet name (default: first sheet)")
	skipScenarios := flag.Bool("skip-scenarios", false, "do not store catalog scenarios")
	flag.Parse()

	logger, err := app.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	if !*skipScenarios {
		n, err := a.Vocabulary.SeedScenarios(ctx, a.Scenarios.List())
		if err != nil {
			logger.Fatal("Failed to seed scenarios", zap.Error(err))
		}
		logger.Info("Scenarios seeded", zap.Int("count", n))
	}

	if *xlsxPath == "" {
		return
	}

	parsed, err := importer.ReadFile(*xlsxPath, *sheet)
	if err != nil {
		logger.Fatal("Failed to read vocabulary sheet", zap.String("path", *xlsxPath), zap.Error(err))
	}
	for _, rowErr := range parsed.Errors {
		logger.Warn("Skipped row", zap.String("reason", rowErr))
	}

	res, err := a.Vocabulary.Import(ctx, parsed.Items)
	if err != nil {
		logger.Fatal("Failed to import vocabulary", zap.Error(err))
	}

	logger.Info("Vocabulary import finished",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped+len(parsed.Errors)),
	)
}
