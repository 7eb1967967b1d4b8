package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// SideBuy marks a purchase order.
	SideBuy = "buy"
	// TypeLimit marks a limit order.
	TypeLimit = "limit"
	// FlagFeeInQuote asks the exchange to charge the fee in quote asset.
	FlagFeeInQuote = "fciq"
)

// takerFeeRate is Kraken's highest taker fee tier (0.26%). Sizing
// reserves headroom for it so the total spend including fee never
// exceeds the configured amount.
var (
	takerFeeRate = decimal.New(26, -4)    // 0.0026
	feeDivisor   = decimal.New(10026, -4) // 1.0026
)

// ErrDivisionByZero is returned when sizing against a zero pair price.
var ErrDivisionByZero = errors.New("pair price must not be 0")

// Rounding of estimated cost and fee is round-half-to-even, matching
// the display convention observed on the exchange. roundMoney is the
// single place to change if that convention turns out to differ.
func roundMoney(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundBank(places)
}

// OrderVolume converts a quote-asset amount into a base-asset volume at
// the given price, truncated (never rounded up) to lotDecimals, then
// shrunk by 1.0026 to leave room for the taker fee.
func OrderVolume(amount, price decimal.Decimal, lotDecimals int32) (decimal.Decimal, error) {
	if price.IsZero() {
		return decimal.Decimal{}, ErrDivisionByZero
	}

	volume := amount.Div(price).RoundFloor(lotDecimals)

	return volume.Div(feeDivisor).RoundFloor(lotDecimals), nil
}

// EstimateCost returns volume*price rounded to the quote asset precision.
func EstimateCost(volume, price decimal.Decimal, quoteDecimals int32) decimal.Decimal {
	return roundMoney(volume.Mul(price), quoteDecimals)
}

// EstimateFee returns the expected 0.26% taker fee on volume*price,
// rounded to the quote asset precision.
func EstimateFee(volume, price decimal.Decimal, quoteDecimals int32) decimal.Decimal {
	return roundMoney(volume.Mul(price).Mul(takerFeeRate), quoteDecimals)
}

// Order is a limit order as the bot sees it: sized and priced locally,
// then completed once with the exchange's txid and description after
// submission. Never mutated after that.
type Order struct {
	Timestamp     time.Time       `json:"date"`
	Pair          string          `json:"pair"`
	Side          string          `json:"type"`
	OrderType     string          `json:"ordertype"`
	Flags         string          `json:"oflags"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
	Volume        decimal.Decimal `json:"volume"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	EstimatedFee  decimal.Decimal `json:"estimated_fee"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TxID          string          `json:"txid,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// NewBuyLimitOrder sizes a fee-adjusted buy limit order spending at
// most amount of the quote asset at the given limit price.
func NewBuyLimitOrder(ts time.Time, pair string, amount, limitPrice decimal.Decimal, lotDecimals, quoteDecimals int32) (Order, error) {
	volume, err := OrderVolume(amount, limitPrice, lotDecimals)
	if err != nil {
		return Order{}, err
	}

	cost := EstimateCost(volume, limitPrice, quoteDecimals)
	fee := EstimateFee(volume, limitPrice, quoteDecimals)

	return Order{
		Timestamp:     ts,
		Pair:          pair,
		Side:          SideBuy,
		OrderType:     TypeLimit,
		Flags:         FlagFeeInQuote,
		LimitPrice:    limitPrice,
		Volume:        volume,
		EstimatedCost: cost,
		EstimatedFee:  fee,
		TotalCost:     cost.Add(fee),
	}, nil
}
