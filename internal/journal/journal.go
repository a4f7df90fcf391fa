// Package journal keeps a daily JSON-lines record of aggregation runs.
package journal

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trade-aggregator/internal/trades"
)

const ext = ".jsonl"

// Run describes one completed aggregation.
type Run struct {
	Input      string
	JSONReport string
	CSVReport  string
	Summary    trades.Summary
}

type Journal struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) Path(t time.Time) string {
	return filepath.Join(j.dir, t.Format("2006-01-02")+ext)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "event"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return cfg
}

// Append writes r as one line of today's journal file.
func (j *Journal) Append(r Run) (err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	p := j.Path(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(f), zapcore.InfoLevel)
	l := zap.New(core, zap.WithClock(fixedClock(now)))
	l.Info("aggregation_run",
		zap.String("input", r.Input),
		zap.String("json_report", r.JSONReport),
		zap.String("csv_report", r.CSVReport),
		zap.Int("fills", r.Summary.Fills),
		zap.Int("trades", r.Summary.Trades),
		zap.Int("quantity", r.Summary.Quantity),
		zap.String("net_profit", r.Summary.NetProfit.String()),
		zap.Int("take_profit_legs", r.Summary.TakeProfitLegs),
		zap.Int("stop_legs", r.Summary.StopLegs),
	)
	return l.Sync()
}

// CompressOlder gzips journal files last modified more than retentionDays ago.
func (j *Journal) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var errs error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		errs = multierr.Append(errs, gzipFile(filepath.Join(j.dir, e.Name())))
	}
	return errs
}

func gzipFile(p string) (err error) {
	gz := p + ".gz"
	// an earlier run already compressed it
	if _, statErr := os.Stat(gz); statErr == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	_, err = io.Copy(gw, in)
	err = multierr.Combine(err, gw.Close(), out.Close())
	if err != nil {
		_ = os.Remove(gz)
		return err
	}
	return os.Remove(p)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func (c fixedClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }
