package types

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FillFields carries the named columns of one export row after parsing.
type FillFields struct {
	Account, MarketPosition, Instrument string
	EntryPrice, ExitPrice               decimal.Decimal
	Quantity                            int
	EntryTime, ExitTime                 time.Time
}

// FillRecord is one executed entry/exit pair from the platform export.
// It is immutable once built by NewFillRecord.
type FillRecord struct {
	account    string
	position   MarketPosition
	entryPrice decimal.Decimal
	exitPrice  decimal.Decimal
	quantity   int
	entryTime  time.Time
	exitTime   time.Time
	instrument string
}

func NewFillRecord(f FillFields) (FillRecord, error) {
	if f.Quantity <= 0 {
		return FillRecord{}, &ValidationError{Field: "quantity", Value: strconv.Itoa(f.Quantity), Reason: "must be positive"}
	}
	pos, err := ParseMarketPosition(f.MarketPosition)
	if err != nil {
		return FillRecord{}, err
	}
	return FillRecord{
		account:    f.Account,
		position:   pos,
		entryPrice: f.EntryPrice,
		exitPrice:  f.ExitPrice,
		quantity:   f.Quantity,
		entryTime:  f.EntryTime,
		exitTime:   f.ExitTime,
		instrument: f.Instrument,
	}, nil
}

func (r FillRecord) Account() string                { return r.account }
func (r FillRecord) MarketPosition() MarketPosition { return r.position }
func (r FillRecord) EntryPrice() decimal.Decimal    { return r.entryPrice }
func (r FillRecord) ExitPrice() decimal.Decimal     { return r.exitPrice }
func (r FillRecord) Quantity() int                  { return r.quantity }
func (r FillRecord) EntryTime() time.Time           { return r.entryTime }
func (r FillRecord) ExitTime() time.Time            { return r.exitTime }
func (r FillRecord) Instrument() string             { return r.instrument }

// Profit is (exit - entry) * qty for longs and the negation for shorts.
func (r FillRecord) Profit() decimal.Decimal {
	p := r.exitPrice.Sub(r.entryPrice).Mul(decimal.NewFromInt(int64(r.quantity)))
	if r.position == Long {
		return p
	}
	return p.Neg()
}

func (r FillRecord) ExitType() ExitType { return ExitTypeFor(r.Profit()) }

func (r FillRecord) ExitSummary() ExitSummary {
	return ExitSummary{Price: r.exitPrice, Quantity: r.quantity, Profit: r.Profit()}
}
