// Package detector decides whether a qualifying purchase already
// happened in the current DCA period by inspecting the account's open
// and recent closed orders.
package detector

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/kraken"
	"go.uber.org/zap"
)

// tolerance is the ±1% band around the configured amount within which
// an existing order still counts as this DCA's purchase.
var tolerance = decimal.New(1, -2)

var one = decimal.NewFromInt(1)

// Detector counts per-period orders for a pair.
type Detector struct {
	l *zap.Logger
}

// New returns a Detector.
func New(l *zap.Logger) *Detector {
	return &Detector{l: l}
}

// PeriodStart returns the start of the current DCA period: today's
// 00:00 UTC minus (delayDays-1) days.
func PeriodStart(now time.Time, delayDays int) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return day.AddDate(0, 0, -(delayDays - 1))
}

// CountPeriodOrders returns how many of the given open and closed
// orders belong to the pair (by name or alt name). Closed orders are
// expected to be pre-filtered by the caller to the current period via
// the ClosedOrders start parameter. When filterAmount is non-nil, only
// orders whose cost lies within ±1% of it are counted. A result > 0
// means the pair was already purchased this period.
func (d *Detector) CountPeriodOrders(open, closed map[string]kraken.OrderInfo, pair domain.Pair, filterAmount *decimal.Decimal) int {
	return len(d.ExtractPairOrders(open, pair.Name, pair.AltName, filterAmount)) +
		len(d.ExtractPairOrders(closed, pair.Name, pair.AltName, filterAmount))
}

// ExtractPairOrders filters orders down to those whose descriptor pair
// matches name or altName, optionally applying the amount tolerance.
func (d *Detector) ExtractPairOrders(orders map[string]kraken.OrderInfo, name, altName string, filterAmount *decimal.Decimal) map[string]kraken.OrderInfo {
	pairOrders := make(map[string]kraken.OrderInfo)
	for id, info := range orders {
		if info.Descr.Pair == name || info.Descr.Pair == altName {
			pairOrders[id] = info
		}
	}

	if filterAmount != nil {
		return d.FilterIgnoredOrders(pairOrders, *filterAmount)
	}

	return pairOrders
}

// FilterIgnoredOrders drops orders whose cost differs by more than 1%
// from amount. An order whose cost cannot be parsed is kept: wrongly
// counting it as this period's purchase skips a day, which is safer
// than risking a duplicate buy.
func (d *Detector) FilterIgnoredOrders(orders map[string]kraken.OrderInfo, amount decimal.Decimal) map[string]kraken.OrderInfo {
	lo := amount.Mul(one.Sub(tolerance))
	hi := amount.Mul(one.Add(tolerance))

	kept := make(map[string]kraken.OrderInfo)
	for id, info := range orders {
		cost, err := decimal.NewFromString(info.Cost)
		if err != nil {
			d.l.Warn("cannot parse order cost, counting the order as this period's purchase",
				zap.String("order", id), zap.String("cost", info.Cost), zap.Error(err))
			kept[id] = info
			continue
		}

		if cost.GreaterThan(lo) && cost.LessThan(hi) {
			kept[id] = info
		} else {
			d.l.Info("ignoring an existing order with differing cost",
				zap.String("order", id), zap.String("cost", cost.String()))
		}
	}

	return kept
}
