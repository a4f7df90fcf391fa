package tradesobs

import (
	"context"
	"time"

	"trade-aggregator/internal/interfaces"
	"trade-aggregator/internal/logger"
	"trade-aggregator/internal/trace"
	"trade-aggregator/internal/trades"
	"trade-aggregator/internal/types"
)

type observableAggregator struct {
	aggregator interfaces.Aggregator
}

var _ interfaces.Aggregator = (*observableAggregator)(nil)

func Wrap(agg interfaces.Aggregator) interfaces.Aggregator {
	return &observableAggregator{
		aggregator: agg,
	}
}

func (oa *observableAggregator) Compute(ctx context.Context, fills []types.FillRecord) ([]types.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "trades.Compute")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Aggregating fills into trades",
		"fills", len(fills),
	)

	for _, g := range trades.GroupFills(fills) {
		if trades.HasMixedPositions(g.Fills) {
			logger.WarnSkip(ctx, 1, "Fills with different market positions share a trade key",
				"instrument", g.Key.Instrument,
				"entry_time", g.Key.EntryTime,
				"fills", len(g.Fills),
				"market_position", g.Fills[0].MarketPosition().String(),
			)
		}
	}

	result, err := oa.aggregator.Compute(ctx, fills)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trade aggregation failed", err,
			"fills", len(fills),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	for _, t := range result {
		logger.TradeBuilt(ctx, t.Instrument(), t.MarketPosition().String(), t.Quantity(),
			t.AvgEntryPrice().String(), t.Profit().String(),
			"entry_time", t.EntryTime(),
			"entries", len(t.Entries()),
			"exits", len(t.Exits()),
		)
	}

	summary := trades.Summarize(fills, result)
	logger.InfoSkip(ctx, 1, "Trade aggregation completed",
		"fills", summary.Fills,
		"trades", summary.Trades,
		"quantity", summary.Quantity,
		"net_profit", summary.NetProfit.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
