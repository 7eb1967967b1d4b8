// Package pairs resolves static per-pair metadata from the exchange's
// pair and asset listings.
package pairs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/kraken"
)

// UnknownPairError means the configured pair is not listed on the
// exchange. The message enumerates available pair ids so an operator
// can fix the configuration from the log alone.
type UnknownPairError struct {
	Name      string
	Available []string
}

func (e *UnknownPairError) Error() string {
	return fmt.Sprintf("%s pair not available on Kraken, available pairs: %s",
		e.Name, strings.Join(e.Available, ", "))
}

// UnknownAssetError means the pair references an asset absent from the
// exchange's asset listing.
type UnknownAssetError struct {
	Name      string
	Available []string
}

func (e *UnknownAssetError) Error() string {
	return fmt.Sprintf("%s asset not available on Kraken, available assets: %s",
		e.Name, strings.Join(e.Available, ", "))
}

// Resolve looks up the configured pair name in the exchange metadata
// and builds the immutable Pair the rest of the bot works with. The
// quote asset precision comes from the asset listing.
func Resolve(pairsMeta map[string]kraken.AssetPairInfo, assetsMeta map[string]kraken.AssetInfo, name string) (domain.Pair, error) {
	info, ok := pairsMeta[name]
	if !ok {
		return domain.Pair{}, &UnknownPairError{Name: name, Available: sortedKeys(pairsMeta)}
	}

	quote, ok := assetsMeta[info.Quote]
	if !ok {
		return domain.Pair{}, &UnknownAssetError{Name: info.Quote, Available: sortedKeys(assetsMeta)}
	}

	orderMin, err := decimal.NewFromString(info.OrderMin)
	if err != nil {
		return domain.Pair{}, errors.Wrapf(err, "invalid ordermin %q for pair %s", info.OrderMin, name)
	}
	if !orderMin.IsPositive() {
		return domain.Pair{}, errors.Errorf("ordermin for pair %s must be positive, got %s", name, orderMin)
	}

	return domain.Pair{
		Name:          name,
		AltName:       info.AltName,
		Base:          info.Base,
		Quote:         info.Quote,
		PairDecimals:  info.PairDecimals,
		LotDecimals:   info.LotDecimals,
		QuoteDecimals: quote.Decimals,
		OrderMin:      orderMin,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
