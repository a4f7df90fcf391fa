package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"trade-aggregator/internal/ingest"
	"trade-aggregator/internal/logger"
	"trade-aggregator/internal/trace"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	inputDir := flag.String("input", "", "directory holding the platform CSV export (overrides config)")
	outputDir := flag.String("output", "", "directory for the trade reports (overrides config)")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(execute(*configPath, *inputDir, *outputDir))
}

func execute(configPath, inputDir, outputDir string) int {
	ctx := context.Background()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	cfg, err := loadConfig(ctx, configPath, inputDir, outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	ctx, span := trace.StartSpan(ctx, "aggregate.run")
	defer span.End()

	jsonPath, csvPath, err := newPipeline(cfg).run(ctx)
	if err != nil {
		if errors.Is(err, ingest.ErrInputNotFound) {
			logger.Error(ctx, "No CSV files found in the input directory", "dir", cfg.InputDir)
		} else {
			logger.ErrorWithErr(ctx, "Aggregation failed", err)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Trades details written to %s\n", jsonPath)
	fmt.Printf("Trades details written to %s\n", csvPath)
	return 0
}
