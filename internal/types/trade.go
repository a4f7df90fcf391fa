package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeFields is the fully aggregated content of one trade. Only the trades
// package is expected to fill it in; everything else reads Trade accessors.
type TradeFields struct {
	Account        string
	MarketPosition MarketPosition
	Instrument     string
	EntryTime      time.Time
	Quantity       int
	AvgEntryPrice  decimal.Decimal
	Entries        []EntryLeg
	Exits          []ExitLeg
}

// Trade groups the fills sharing an entry time and instrument.
type Trade struct {
	f TradeFields
}

func NewTrade(f TradeFields) Trade {
	f.Entries = append([]EntryLeg(nil), f.Entries...)
	f.Exits = append([]ExitLeg(nil), f.Exits...)
	return Trade{f: f}
}

func (t Trade) Account() string                { return t.f.Account }
func (t Trade) MarketPosition() MarketPosition { return t.f.MarketPosition }
func (t Trade) Instrument() string             { return t.f.Instrument }
func (t Trade) EntryTime() time.Time           { return t.f.EntryTime }
func (t Trade) Quantity() int                  { return t.f.Quantity }
func (t Trade) AvgEntryPrice() decimal.Decimal { return t.f.AvgEntryPrice }

func (t Trade) Entries() []EntryLeg { return append([]EntryLeg(nil), t.f.Entries...) }
func (t Trade) Exits() []ExitLeg    { return append([]ExitLeg(nil), t.f.Exits...) }

// Profit sums the profit of every exit leg.
func (t Trade) Profit() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.f.Exits {
		total = total.Add(e.Profit)
	}
	return total
}
