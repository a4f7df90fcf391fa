package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrValidation is the sentinel matched by every ValidationError.
var ErrValidation = errors.New("validation error")

// ValidationError reports a fill row that cannot become a FillRecord.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type MarketPosition int

const (
	Long MarketPosition = iota + 1
	Short
)

func (p MarketPosition) String() string {
	switch p {
	case Long:
		return "Long"
	case Short:
		return "Short"
	default:
		return "Unknown"
	}
}

// ParseMarketPosition accepts the platform labels "Long" and "Short".
func ParseMarketPosition(s string) (MarketPosition, error) {
	switch strings.TrimSpace(s) {
	case "Long":
		return Long, nil
	case "Short":
		return Short, nil
	}
	return 0, &ValidationError{Field: "market position", Value: s, Reason: "must be Long or Short"}
}

type ExitType int

const (
	Stop ExitType = iota
	TakeProfit
)

// String returns the report label for the exit type.
func (t ExitType) String() string {
	if t == TakeProfit {
		return "TP"
	}
	return "Stop"
}

// ExitTypeFor classifies a realised profit: strictly positive is a take-profit.
func ExitTypeFor(profit decimal.Decimal) ExitType {
	if profit.IsPositive() {
		return TakeProfit
	}
	return Stop
}

type EntryLeg struct {
	Price    decimal.Decimal
	Quantity int
}

type ExitLeg struct {
	Price    decimal.Decimal
	Quantity int
	Profit   decimal.Decimal
	Type     ExitType
}

type ExitSummary struct {
	Price    decimal.Decimal
	Quantity int
	Profit   decimal.Decimal
}
