package interfaces

import (
	"context"

	"trade-aggregator/internal/types"
)

// FillSource locates the export in dir and parses it into fill records.
type FillSource interface {
	Load(ctx context.Context, dir string) (path string, fills []types.FillRecord, err error)
}
