package trades

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"trade-aggregator/internal/types"
)

// ErrEmptyGroup means a trade was requested for zero fills.
var ErrEmptyGroup = errors.New("trade must have at least one fill")

// Key identifies the fills that belong to one trade. Entry times are compared
// exactly; there is no tolerance window.
type Key struct {
	EntryTime  time.Time
	Instrument string
}

func keyOf(f types.FillRecord) Key {
	return Key{EntryTime: f.EntryTime().Round(0).UTC(), Instrument: f.Instrument()}
}

type Group struct {
	Key   Key
	Fills []types.FillRecord
}

// GroupFills partitions fills by Key, in the order each key is first seen.
func GroupFills(fills []types.FillRecord) []Group {
	index := make(map[Key]int)
	groups := make([]Group, 0)
	for _, f := range fills {
		k := keyOf(f)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Fills = append(groups[i].Fills, f)
	}
	return groups
}

// NewTrade aggregates one group of fills. Metadata comes from the first fill;
// mixed market positions are not reconciled.
func NewTrade(fills []types.FillRecord) (types.Trade, error) {
	if len(fills) == 0 {
		return types.Trade{}, ErrEmptyGroup
	}

	qty := 0
	weighted := decimal.Zero
	for _, f := range fills {
		qty += f.Quantity()
		weighted = weighted.Add(f.EntryPrice().Mul(decimal.NewFromInt(int64(f.Quantity()))))
	}

	first := fills[0]
	return types.NewTrade(types.TradeFields{
		Account:        first.Account(),
		MarketPosition: first.MarketPosition(),
		Instrument:     first.Instrument(),
		EntryTime:      first.EntryTime(),
		Quantity:       qty,
		AvgEntryPrice:  weighted.Div(decimal.NewFromInt(int64(qty))),
		Entries:        entryLegs(fills),
		Exits:          exitLegs(fills),
	}), nil
}

func entryLegs(fills []types.FillRecord) []types.EntryLeg {
	legs := make([]types.EntryLeg, 0, len(fills))
	for _, f := range fills {
		i := indexOfEntry(legs, f.EntryPrice())
		if i < 0 {
			legs = append(legs, types.EntryLeg{Price: f.EntryPrice()})
			i = len(legs) - 1
		}
		legs[i].Quantity += f.Quantity()
	}
	return legs
}

// exitLegs sums quantity and per-fill profit at each exit price. The leg type
// follows the summed profit, not the type of any single fill.
func exitLegs(fills []types.FillRecord) []types.ExitLeg {
	legs := make([]types.ExitLeg, 0, len(fills))
	for _, f := range fills {
		i := indexOfExit(legs, f.ExitPrice())
		if i < 0 {
			legs = append(legs, types.ExitLeg{Price: f.ExitPrice(), Profit: decimal.Zero})
			i = len(legs) - 1
		}
		legs[i].Quantity += f.Quantity()
		legs[i].Profit = legs[i].Profit.Add(f.Profit())
	}
	for i := range legs {
		legs[i].Type = types.ExitTypeFor(legs[i].Profit)
	}
	return legs
}

func indexOfEntry(legs []types.EntryLeg, price decimal.Decimal) int {
	for i := range legs {
		if legs[i].Price.Equal(price) {
			return i
		}
	}
	return -1
}

func indexOfExit(legs []types.ExitLeg, price decimal.Decimal) int {
	for i := range legs {
		if legs[i].Price.Equal(price) {
			return i
		}
	}
	return -1
}

// ComputeTrades turns a flat fill list into trades. It holds no state and
// stops at the first error.
func ComputeTrades(fills []types.FillRecord) ([]types.Trade, error) {
	groups := GroupFills(fills)
	out := make([]types.Trade, 0, len(groups))
	for _, g := range groups {
		t, err := NewTrade(g.Fills)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// HasMixedPositions reports whether a group carries both long and short fills.
func HasMixedPositions(fills []types.FillRecord) bool {
	for _, f := range fills {
		if f.MarketPosition() != fills[0].MarketPosition() {
			return true
		}
	}
	return false
}

type aggregator struct{}

func (aggregator) Compute(_ context.Context, fills []types.FillRecord) ([]types.Trade, error) {
	return ComputeTrades(fills)
}
