// Package ingest finds the platform export on disk and converts its rows into
// typed fill records. Rows are validated as they are converted; the first bad
// row aborts the load.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"trade-aggregator/internal/interfaces"
	"trade-aggregator/internal/logger"
	"trade-aggregator/internal/types"
)

// ErrInputNotFound is returned when the input directory holds no CSV export.
var ErrInputNotFound = errors.New("no CSV export found")

// exportRow mirrors the columns of a NinjaTrader trade performance export.
type exportRow struct {
	Account    string `csv:"Account"`
	MarketPos  string `csv:"Market pos."`
	EntryPrice string `csv:"Entry price"`
	ExitPrice  string `csv:"Exit price"`
	Qty        string `csv:"Qty"`
	EntryTime  string `csv:"Entry time"`
	ExitTime   string `csv:"Exit time"`
	Instrument string `csv:"Instrument"`
}

// requiredColumns are the export headers a fill is built from.
var requiredColumns = []string{"Account", "Market pos.", "Entry price", "Exit price", "Qty", "Entry time", "Exit time", "Instrument"}

var utf8BOM = []byte("\ufeff")

type Reader struct {
	layout string
	loc    *time.Location
}

var _ interfaces.FillSource = (*Reader)(nil)

// NewReader parses timestamps with layout in loc. A nil loc means time.Local.
func NewReader(layout string, loc *time.Location) *Reader {
	if loc == nil {
		loc = time.Local
	}
	return &Reader{layout: layout, loc: loc}
}

func (r *Reader) Load(ctx context.Context, dir string) (string, []types.FillRecord, error) {
	op := logger.StartOperation(ctx, "ingest.Load", "dir", dir)

	path, err := FindInput(dir)
	if err != nil {
		op.EndWithError(err)
		return "", nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		op.EndWithError(err)
		return "", nil, err
	}
	defer f.Close()

	fills, err := ReadFills(f, r.layout, r.loc)
	if err != nil {
		err = fmt.Errorf("%s: %w", filepath.Base(path), err)
		op.EndWithError(err)
		return "", nil, err
	}

	op.End("path", path, "fills", len(fills))
	return path, fills, nil
}

// FindInput returns the first *.csv file in dir by listing order.
func FindInput(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: directory %s does not exist", ErrInputNotFound, dir)
		}
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		return filepath.Join(dir, e.Name()), nil
	}
	return "", fmt.Errorf("%w in %s", ErrInputNotFound, dir)
}

// ReadFills decodes an export and converts every row into a FillRecord.
// Every required column must be present in the header.
func ReadFills(in io.Reader, layout string, loc *time.Location) ([]types.FillRecord, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	header, err := gocsv.DefaultCSVReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []*exportRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	fills := make([]types.FillRecord, 0, len(rows))
	for i, row := range rows {
		fill, err := row.toFill(layout, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		fills = append(fills, fill)
	}
	return fills, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[strings.TrimSpace(h)] = true
	}
	for _, col := range requiredColumns {
		if !seen[col] {
			return &types.ValidationError{Field: "header", Value: col, Reason: "required column missing"}
		}
	}
	return nil
}

func (row *exportRow) toFill(layout string, loc *time.Location) (types.FillRecord, error) {
	entryPrice, err := parseMoney("entry price", row.EntryPrice)
	if err != nil {
		return types.FillRecord{}, err
	}
	exitPrice, err := parseMoney("exit price", row.ExitPrice)
	if err != nil {
		return types.FillRecord{}, err
	}
	qty, err := parseQuantity(row.Qty)
	if err != nil {
		return types.FillRecord{}, err
	}
	entryTime, err := parseTime("entry time", row.EntryTime, layout, loc)
	if err != nil {
		return types.FillRecord{}, err
	}
	exitTime, err := parseTime("exit time", row.ExitTime, layout, loc)
	if err != nil {
		return types.FillRecord{}, err
	}
	return types.NewFillRecord(types.FillFields{
		Account:        strings.TrimSpace(row.Account),
		MarketPosition: row.MarketPos,
		Instrument:     strings.TrimSpace(row.Instrument),
		EntryPrice:     entryPrice,
		ExitPrice:      exitPrice,
		Quantity:       qty,
		EntryTime:      entryTime,
		ExitTime:       exitTime,
	})
}

// parseMoney accepts plain decimals as well as "$1,234.50" and "(12.50)".
func parseMoney(field, s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		neg = true
		v = v[1 : len(v)-1]
	}
	v = strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, &types.ValidationError{Field: field, Value: s, Reason: "not a number"}
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, &types.ValidationError{Field: "quantity", Value: s, Reason: "must be a positive number"}
	}
	return n, nil
}

func parseTime(field, s, layout string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, &types.ValidationError{Field: field, Value: s, Reason: "expected layout " + layout}
	}
	return t, nil
}
