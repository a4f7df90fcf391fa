package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"trade-aggregator/internal/interfaces"
	"trade-aggregator/internal/types"
)

// Format selects the serialisation of a trade report.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Columns is the field order shared by the JSON objects and the CSV header.
var Columns = []string{"Account", "Market_pos", "Avg_entry_price", "Qty", "Entry_time", "Instrument", "Exits", "Entries"}

type entryRecord struct {
	Price json.Number `json:"price"`
	Qty   int         `json:"Qty"`
}

type tradeRecord struct {
	Account       string        `json:"Account"`
	MarketPos     string        `json:"Market_pos"`
	AvgEntryPrice json.Number   `json:"Avg_entry_price"`
	Qty           int           `json:"Qty"`
	EntryTime     string        `json:"Entry_time"`
	Instrument    string        `json:"Instrument"`
	Exits         []string      `json:"Exits"`
	Entries       []entryRecord `json:"Entries"`
}

// Writer renders trades and stores them as date-stamped files in a directory.
type Writer struct {
	outputDir  string
	timeLayout string
}

var _ interfaces.Reporter = (*Writer)(nil)

// NewWriter formats entry times with timeLayout, normally the input layout.
func NewWriter(outputDir, timeLayout string) *Writer {
	return &Writer{outputDir: outputDir, timeLayout: timeLayout}
}

// FormatExit renders an exit leg as "<TP|Stop>: {price: P, Qty: Q, Pnl: L}".
func FormatExit(e types.ExitLeg) string {
	return fmt.Sprintf("%s: {price: %s, Qty: %d, Pnl: %s}", e.Type, e.Price.String(), e.Quantity, e.Profit.String())
}

func (e entryRecord) String() string {
	return fmt.Sprintf("{price: %s, Qty: %d}", e.Price, e.Qty)
}

func (w *Writer) record(t types.Trade) tradeRecord {
	exits := t.Exits()
	entries := t.Entries()
	rec := tradeRecord{
		Account:       t.Account(),
		MarketPos:     t.MarketPosition().String(),
		AvgEntryPrice: json.Number(t.AvgEntryPrice().String()),
		Qty:           t.Quantity(),
		EntryTime:     t.EntryTime().Format(w.timeLayout),
		Instrument:    t.Instrument(),
		Exits:         make([]string, 0, len(exits)),
		Entries:       make([]entryRecord, 0, len(entries)),
	}
	for _, e := range exits {
		rec.Exits = append(rec.Exits, FormatExit(e))
	}
	for _, e := range entries {
		rec.Entries = append(rec.Entries, entryRecord{Price: json.Number(e.Price.String()), Qty: e.Quantity})
	}
	return rec
}

// Generate renders trades in the requested format.
func (w *Writer) Generate(trades []types.Trade, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return w.generateJSON(trades)
	case FormatCSV:
		return w.generateCSV(trades)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (w *Writer) generateJSON(trades []types.Trade) ([]byte, error) {
	records := make([]tradeRecord, 0, len(trades))
	for _, t := range trades {
		records = append(records, w.record(t))
	}
	return json.MarshalIndent(records, "", "  ")
}

func (w *Writer) generateCSV(trades []types.Trade) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(Columns); err != nil {
		return nil, err
	}
	for _, t := range trades {
		r := w.record(t)
		entries := make([]string, 0, len(r.Entries))
		for _, e := range r.Entries {
			entries = append(entries, e.String())
		}
		rec := []string{
			r.Account,
			r.MarketPos,
			r.AvgEntryPrice.String(),
			strconv.Itoa(r.Qty),
			r.EntryTime,
			r.Instrument,
			"[" + strings.Join(r.Exits, ", ") + "]",
			"[" + strings.Join(entries, ", ") + "]",
		}
		if err := cw.Write(rec); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Path returns the file a report of the given format is written to for day.
func (w *Writer) Path(day time.Time, format Format) string {
	return filepath.Join(w.outputDir, day.Format("2006-01-02")+"trades."+string(format))
}

// Write renders both formats before touching the disk. If either file cannot
// be written, neither is left behind.
func (w *Writer) Write(_ context.Context, trades []types.Trade, now time.Time) (string, string, error) {
	jsonData, err := w.Generate(trades, FormatJSON)
	if err != nil {
		return "", "", fmt.Errorf("render json: %w", err)
	}
	csvData, err := w.Generate(trades, FormatCSV)
	if err != nil {
		return "", "", fmt.Errorf("render csv: %w", err)
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", "", err
	}
	jsonPath := w.Path(now, FormatJSON)
	if err := writeFile(jsonPath, append(jsonData, '\n')); err != nil {
		return "", "", err
	}
	csvPath := w.Path(now, FormatCSV)
	if err := writeFile(csvPath, csvData); err != nil {
		return "", "", multierr.Append(err, os.Remove(jsonPath))
	}
	return jsonPath, csvPath, nil
}

func writeFile(path string, data []byte) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	_, err = f.Write(data)
	return err
}
