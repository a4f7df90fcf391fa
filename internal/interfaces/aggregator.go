package interfaces

import (
	"context"

	"trade-aggregator/internal/types"
)

type Aggregator interface {
	Compute(ctx context.Context, fills []types.FillRecord) ([]types.Trade, error)
}
