package interfaces

import (
	"context"
	"time"

	"trade-aggregator/internal/types"
)

type Reporter interface {
	Write(ctx context.Context, trades []types.Trade, now time.Time) (jsonPath, csvPath string, err error)
}
