package dca

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ClockSkewError means the local clock and the exchange clock disagree
// by more than the allowed skew. Signing with a skewed clock risks
// nonce rejection, so the pair's run is aborted.
type ClockSkewError struct {
	Lag time.Duration
}

func (e *ClockSkewError) Error() string {
	return fmt.Sprintf("%s lag between system and Kraken time, synchronize your system clock or check your connection", e.Lag)
}

// InsufficientFundsError means the quote asset balance cannot cover the
// configured DCA amount.
type InsufficientFundsError struct {
	Asset string
	Have  decimal.Decimal
	Need  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %s %s, need %s", e.Have, e.Asset, e.Need)
}

// OrderTooSmallError means the fee-adjusted volume is below the
// exchange's minimum order size for the pair.
type OrderTooSmallError struct {
	Pair   string
	Volume decimal.Decimal
	Min    decimal.Decimal
}

func (e *OrderTooSmallError) Error() string {
	return fmt.Sprintf("too low volume to buy %s: %s, minimum is %s", e.Pair, e.Volume, e.Min)
}
