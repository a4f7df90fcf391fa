package trades

import "trade-aggregator/internal/interfaces"

func New() interfaces.Aggregator {
	return aggregator{}
}
