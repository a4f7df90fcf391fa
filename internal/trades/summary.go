package trades

import (
	"github.com/shopspring/decimal"

	"trade-aggregator/internal/types"
)

// Summary holds run totals for logs, the journal and metrics.
type Summary struct {
	Trades         int             `json:"trades"`
	Fills          int             `json:"fills"`
	Quantity       int             `json:"quantity"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	TakeProfitLegs int             `json:"take_profit_legs"`
	StopLegs       int             `json:"stop_legs"`
}

func Summarize(fills []types.FillRecord, trades []types.Trade) Summary {
	s := Summary{Trades: len(trades), Fills: len(fills), NetProfit: decimal.Zero}
	for _, t := range trades {
		s.Quantity += t.Quantity()
		for _, e := range t.Exits() {
			s.NetProfit = s.NetProfit.Add(e.Profit)
			if e.Type == types.TakeProfit {
				s.TakeProfitLegs++
			} else {
				s.StopLegs++
			}
		}
	}
	return s
}
