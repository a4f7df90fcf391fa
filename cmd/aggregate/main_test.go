package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-aggregator/internal/ingest"
	"trade-aggregator/internal/store"
	"trade-aggregator/internal/types"
)

const export = `Instrument,Account,Market pos.,Qty,Entry price,Exit price,Entry time,Exit time,Profit
ES,Sim101,Long,2,100,105,1/5/2024 9:30:00 AM,1/5/2024 9:40:00 AM,$10.00
ES,Sim101,Long,3,102,105,1/5/2024 9:30:00 AM,1/5/2024 9:41:00 AM,$9.00
`

func testConfig(t *testing.T) *store.Config {
	t.Helper()
	root := t.TempDir()
	cfg := store.Default()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.Timezone = "UTC"
	cfg.Journal.Enabled = true
	cfg.Journal.Dir = filepath.Join(root, "journal")
	cfg.Metrics.Textfile = filepath.Join(root, "metrics", "trades.prom")
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	return cfg
}

func TestPipelineRun(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "export.csv"), []byte(export), 0o644))

	p := newPipeline(cfg)
	p.now = func() time.Time { return time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC) }

	jsonPath, csvPath, err := p.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "2024-01-05trades.json"), jsonPath)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "2024-01-05trades.csv"), csvPath)
	assert.FileExists(t, jsonPath)
	assert.FileExists(t, csvPath)
	assert.FileExists(t, cfg.Metrics.Textfile)

	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"TP: {price: 105, Qty: 5, Pnl: 19}"`)
	assert.Contains(t, string(b), `"Avg_entry_price": 101.2`)
}

func TestPipelineNoInput(t *testing.T) {
	cfg := testConfig(t)

	_, _, err := newPipeline(cfg).run(context.Background())
	require.ErrorIs(t, err, ingest.ErrInputNotFound)

	entries, err := os.ReadDir(cfg.OutputDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestPipelineInvalidRowWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	bad := export + "ES,Sim101,Flat,1,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,$1.00\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "export.csv"), []byte(bad), 0o644))

	_, _, err := newPipeline(cfg).run(context.Background())
	require.ErrorIs(t, err, types.ErrValidation)

	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
	assert.NoFileExists(t, cfg.Metrics.Textfile)
}

func TestExecuteExitCodes(t *testing.T) {
	cfg := testConfig(t)
	missingConfig := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("TRADES_INPUT_DIR", "")
	t.Setenv("TRADES_OUTPUT_DIR", "")

	assert.Equal(t, 1, execute(missingConfig, cfg.InputDir, cfg.OutputDir))

	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "export.csv"), []byte(export), 0o644))
	assert.Equal(t, 0, execute(missingConfig, cfg.InputDir, cfg.OutputDir))
}
