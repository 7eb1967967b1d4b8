// Package domain defines the core data structures of the bot: pair
// metadata, orders and the fee-aware order sizing arithmetic.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Pair is the static, exchange-declared metadata of a tradeable pair.
// Resolved once at startup and never mutated afterwards.
type Pair struct {
	// Name is the pair id used in API calls, e.g. "XETHZEUR".
	Name string
	// AltName is the alternative pair name, e.g. "ETHEUR".
	AltName string
	// Base is the asset being bought.
	Base string
	// Quote is the asset being spent.
	Quote string
	// PairDecimals is the price precision of the pair.
	PairDecimals int32
	// LotDecimals is the volume precision of the pair.
	LotDecimals int32
	// QuoteDecimals is the precision of the quote asset.
	QuoteDecimals int32
	// OrderMin is the minimum order volume in base asset.
	OrderMin decimal.Decimal
}

// String returns the pair id.
func (p *Pair) String() string {
	return p.Name
}

// Describe returns a short human-readable form, e.g. "XETHZEUR (XETH/ZEUR)".
func (p *Pair) Describe() string {
	return fmt.Sprintf("%s (%s/%s)", p.Name, p.Base, p.Quote)
}
