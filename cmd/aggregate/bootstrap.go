package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"trade-aggregator/internal/ingest"
	"trade-aggregator/internal/interfaces"
	"trade-aggregator/internal/journal"
	"trade-aggregator/internal/logger"
	"trade-aggregator/internal/metrics"
	"trade-aggregator/internal/report"
	"trade-aggregator/internal/report/reportobs"
	"trade-aggregator/internal/store"
	"trade-aggregator/internal/trace"
	"trade-aggregator/internal/trades"
	"trade-aggregator/internal/trades/tradesobs"
)

// initializeSystem loads .env and sets up logging and tracing
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads the config file and applies command-line overrides
func loadConfig(ctx context.Context, path, inputDir, outputDir string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	if inputDir != "" {
		cfg.InputDir = inputDir
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	return cfg, nil
}

type pipeline struct {
	cfg        *store.Config
	source     interfaces.FillSource
	aggregator interfaces.Aggregator
	reporter   interfaces.Reporter
	journal    *journal.Journal
	now        func() time.Time
}

func newPipeline(cfg *store.Config) *pipeline {
	p := &pipeline{
		cfg:        cfg,
		source:     ingest.NewReader(cfg.TimeLayout, cfg.Location()),
		aggregator: tradesobs.Wrap(trades.New()),
		reporter:   reportobs.Wrap(report.NewWriter(cfg.OutputDir, cfg.TimeLayout)),
		now:        time.Now,
	}
	if cfg.Journal.Enabled {
		p.journal = journal.New(cfg.Journal.Dir)
	}
	return p
}

// run reads the export, aggregates it and writes both reports. Reports are
// only written once every row has parsed and every trade has been built.
func (p *pipeline) run(ctx context.Context) (jsonPath, csvPath string, err error) {
	input, fills, err := p.source.Load(ctx, p.cfg.InputDir)
	if err != nil {
		return "", "", err
	}
	logger.Info(ctx, "Export loaded", "path", input, "fills", len(fills))

	result, err := p.aggregator.Compute(ctx, fills)
	if err != nil {
		return "", "", err
	}

	now := p.now()
	jsonPath, csvPath, err = p.reporter.Write(ctx, result, now)
	if err != nil {
		return "", "", err
	}

	summary := trades.Summarize(fills, result)
	p.recordJournal(ctx, journal.Run{Input: input, JSONReport: jsonPath, CSVReport: csvPath, Summary: summary})
	p.recordMetrics(ctx, summary, now)
	return jsonPath, csvPath, nil
}

// recordJournal failures are logged, not returned: the reports are already written.
func (p *pipeline) recordJournal(ctx context.Context, r journal.Run) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Append(r); err != nil {
		logger.Warn(ctx, "Failed to append run journal", "error", err)
	}
	if err := p.journal.CompressOlder(p.cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
	}
}

func (p *pipeline) recordMetrics(ctx context.Context, s trades.Summary, now time.Time) {
	if p.cfg.Metrics.Textfile == "" {
		return
	}
	m := metrics.NewRun()
	m.Observe(s, now)
	if err := m.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		logger.Warn(ctx, "Failed to write metrics textfile", "error", err, "path", p.cfg.Metrics.Textfile)
	}
}
