package reportobs

import (
	"context"
	"time"

	"trade-aggregator/internal/interfaces"
	"trade-aggregator/internal/logger"
	"trade-aggregator/internal/trace"
	"trade-aggregator/internal/types"
)

type observableReporter struct {
	reporter interfaces.Reporter
}

var _ interfaces.Reporter = (*observableReporter)(nil)

func Wrap(r interfaces.Reporter) interfaces.Reporter {
	return &observableReporter{
		reporter: r,
	}
}

func (ro *observableReporter) Write(ctx context.Context, trades []types.Trade, now time.Time) (string, string, error) {
	ctx, span := trace.StartSpan(ctx, "report.Write")
	defer span.End()

	jsonPath, csvPath, err := ro.reporter.Write(ctx, trades, now)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Writing trade reports failed", err,
			"date", now.Format("2006-01-02"),
		)
		return "", "", err
	}

	logger.InfoSkip(ctx, 1, "Trade reports written",
		"trades", len(trades),
		"json_path", jsonPath,
		"csv_path", csvPath,
	)
	return jsonPath, csvPath, nil
}
