package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-aggregator/internal/types"
)

const layout = "1/2/2006 3:04:05 PM"

const export = `Trade number,Instrument,Account,Strategy,Market pos.,Qty,Entry price,Exit price,Entry time,Exit time,Entry name,Exit name,Profit
1,ES 03-24,Sim101,,Long,2,4800.25,4805.25,1/5/2024 9:30:00 AM,1/5/2024 9:45:10 AM,Entry,Target1,$500.00
2,ES 03-24,Sim101,,Long,3,"4,801.00",4805.25,1/5/2024 9:30:00 AM,1/5/2024 9:47:00 AM,Entry,Target1,$637.50
3,NQ 03-24,Sim101,,Short,1,16800,16810.5,1/5/2024 10:02:00 AM,1/5/2024 10:04:00 AM,Entry,Stop,($210.00)
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFindInputPicksFirstCSVByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "x")
	writeFile(t, dir, "b.csv", export)
	writeFile(t, dir, "a.csv", export)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0.csv"), 0o755))

	got, err := FindInput(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.csv"), got)
}

func TestFindInputNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "x")

	_, err := FindInput(dir)
	assert.ErrorIs(t, err, ErrInputNotFound)

	_, err = FindInput(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestReadFills(t *testing.T) {
	fills, err := ReadFills(strings.NewReader(export), layout, time.UTC)
	require.NoError(t, err)
	require.Len(t, fills, 3)

	first := fills[0]
	assert.Equal(t, "Sim101", first.Account())
	assert.Equal(t, "ES 03-24", first.Instrument())
	assert.Equal(t, types.Long, first.MarketPosition())
	assert.Equal(t, 2, first.Quantity())
	assert.True(t, first.EntryPrice().Equal(decimal.RequireFromString("4800.25")))
	assert.True(t, first.EntryTime().Equal(time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)))
	assert.True(t, first.ExitTime().Equal(time.Date(2024, 1, 5, 9, 45, 10, 0, time.UTC)))

	assert.True(t, fills[1].EntryPrice().Equal(decimal.NewFromInt(4801)))
	assert.Equal(t, types.Short, fills[2].MarketPosition())
	assert.True(t, fills[2].Profit().Equal(decimal.RequireFromString("-10.5")))
}

func TestReadFillsRejectsBadRows(t *testing.T) {
	header := "Instrument,Account,Market pos.,Qty,Entry price,Exit price,Entry time,Exit time,Profit\n"
	good := "ES,Sim101,Long,1,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,$50.00\n"

	tests := []struct {
		name  string
		row   string
		field string
	}{
		{"zero quantity", "ES,Sim101,Long,0,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,$0\n", "quantity"},
		{"negative quantity", "ES,Sim101,Long,-2,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,$0\n", "quantity"},
		{"text quantity", "ES,Sim101,Long,two,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,$0\n", "quantity"},
		{"flat position", "ES,Sim101,Flat,1,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,$0\n", "market position"},
		{"bad price", "ES,Sim101,Long,1,abc,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,$0\n", "entry price"},
		{"bad time", "ES,Sim101,Long,1,100,101,2024-01-05 09:30,1/5/2024 9:31:00 AM,$0\n", "entry time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFills(strings.NewReader(header+good+tt.row), layout, time.UTC)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrValidation)
			assert.Contains(t, err.Error(), "row 2")

			var ve *types.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestReadFillsRequiresColumns(t *testing.T) {
	row := "Sim101,Long,1,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM\n"

	_, err := ReadFills(strings.NewReader("Account,Market pos.,Qty,Entry price,Exit price,Entry time,Exit time\n"+row), layout, time.UTC)
	require.ErrorIs(t, err, types.ErrValidation)

	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "header", ve.Field)
	assert.Equal(t, "Instrument", ve.Value)

	renamed := "Acct,Market pos.,Qty,Entry price,Exit price,Entry time,Exit time,Instrument\n" +
		"Sim101,Long,1,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,ES\n"
	_, err = ReadFills(strings.NewReader(renamed), layout, time.UTC)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Account", ve.Value)
}

func TestReadFillsStripsByteOrderMark(t *testing.T) {
	in := "\ufeffAccount,Market pos.,Qty,Entry price,Exit price,Entry time,Exit time,Instrument\n" +
		"Sim101,Long,1,100,101,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM,ES\n"

	fills, err := ReadFills(strings.NewReader(in), layout, time.UTC)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "Sim101", fills[0].Account())
	assert.Equal(t, "ES", fills[0].Instrument())
}

func TestParseMoney(t *testing.T) {
	tests := map[string]string{
		"100":        "100",
		" 4,801.50 ": "4801.5",
		"$1,234.50":  "1234.5",
		"($210.00)":  "-210",
		"-3.25":      "-3.25",
	}
	for in, want := range tests {
		got, err := parseMoney("price", in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q -> %s", in, got)
	}

	_, err := parseMoney("price", "")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestReaderLoad(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "trades.csv", export)

	path, fills, err := NewReader(layout, time.UTC).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, p, path)
	assert.Len(t, fills, 3)
}

func TestReaderLoadReportsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.csv", "Instrument,Account,Market pos.,Qty,Entry price,Exit price,Entry time,Exit time\nES,Sim101,Long,0,1,2,1/5/2024 9:30:00 AM,1/5/2024 9:31:00 AM\n")

	_, _, err := NewReader(layout, nil).Load(context.Background(), dir)
	require.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), "bad.csv")
}
