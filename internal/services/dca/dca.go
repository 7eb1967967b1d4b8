// Package dca runs the per-pair dollar-cost-averaging decision engine:
// clock check, funds check, duplicate detection, limit pricing, order
// sizing and submission.
package dca

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/kraken"
	"github.com/vadiminshakov/krakendca/internal/services/detector"
	"go.uber.org/zap"
)

// maxClockSkew is the largest tolerated difference between the local
// and the exchange clock.
const maxClockSkew = 2 * time.Second

var one = decimal.NewFromInt(1)

type exchange interface {
	GetTime(ctx context.Context) (int64, error)
	GetBalance(ctx context.Context) (map[string]string, error)
	GetTradeBalance(ctx context.Context) (kraken.TradeBalance, error)
	GetTicker(ctx context.Context, pair string) (map[string]kraken.Ticker, error)
	GetOpenOrders(ctx context.Context) (map[string]kraken.OrderInfo, error)
	GetClosedOrders(ctx context.Context, start int64) (map[string]kraken.OrderInfo, error)
	AddLimitOrder(ctx context.Context, pair string, buy bool, price, volume decimal.Decimal, oflags string) (kraken.OrderConfirmation, error)
}

type recorder interface {
	Record(order domain.Order) error
}

// Outcome is the terminal state of one pair's run.
type Outcome string

const (
	// OutcomePurchased means an order was submitted and recorded.
	OutcomePurchased Outcome = "purchased"
	// OutcomeSkipped means a qualifying order already exists this period.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeRejected means the limit price exceeded the configured maximum.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means the run aborted with an error.
	OutcomeFailed Outcome = "failed"
)

// Result is the terminal state of one pair's run plus diagnostics.
type Result struct {
	Pair    string
	Outcome Outcome
	Order   *domain.Order
	Err     error
}

// Settings is the immutable per-pair configuration of the engine.
type Settings struct {
	// DelayDays is the DCA period length in days.
	DelayDays int
	// Amount is the quote-asset amount to spend per period.
	Amount decimal.Decimal
	// LimitFactor scales the ask price into the limit price. 1 means
	// "buy at ask".
	LimitFactor decimal.Decimal
	// MaxPrice rejects the purchase when the limit price exceeds it.
	// Nil means no limit.
	MaxPrice *decimal.Decimal
	// IgnoreDifferingOrders excludes foreign orders whose cost differs
	// by more than 1% from Amount during duplicate detection.
	IgnoreDifferingOrders bool
}

// Engine executes the DCA state machine for a single pair. A failure
// aborts this pair only; sibling pairs run independently.
type Engine struct {
	client   exchange
	recorder recorder
	detector *detector.Detector
	pair     domain.Pair
	settings Settings
	l        *zap.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewEngine returns an engine for one configured pair.
func NewEngine(l *zap.Logger, client exchange, rec recorder, pair domain.Pair, settings Settings) *Engine {
	return &Engine{
		client:   client,
		recorder: rec,
		detector: detector.New(l),
		pair:     pair,
		settings: settings,
		l:        l.With(zap.String("pair", pair.Name)),
		now:      time.Now,
	}
}

// Run walks the state machine to a terminal state. Errors are carried
// in the Result, never returned separately, so the scheduler can keep
// going with the next pair.
func (e *Engine) Run(ctx context.Context) Result {
	outcome, order, err := e.run(ctx)

	return Result{Pair: e.pair.Name, Outcome: outcome, Order: order, Err: err}
}

func (e *Engine) run(ctx context.Context) (Outcome, *domain.Order, error) {
	now, err := e.checkTime(ctx)
	if err != nil {
		return OutcomeFailed, nil, err
	}

	if err := e.checkBalance(ctx); err != nil {
		return OutcomeFailed, nil, err
	}

	purchased, err := e.alreadyPurchased(ctx, now)
	if err != nil {
		return OutcomeFailed, nil, err
	}
	if purchased {
		e.l.Info("already placed an order this period, skipping")
		return OutcomeSkipped, nil, nil
	}

	ask, err := e.askPrice(ctx)
	if err != nil {
		return OutcomeFailed, nil, err
	}
	e.l.Info("current ask price", zap.String("ask", ask.String()))

	limitPrice := e.limitPrice(ask)

	if e.settings.MaxPrice != nil && limitPrice.GreaterThan(*e.settings.MaxPrice) {
		e.l.Info("limit price greater than maximum price, not buying",
			zap.String("limit_price", limitPrice.String()),
			zap.String("max_price", e.settings.MaxPrice.String()))
		return OutcomeRejected, nil, nil
	}

	order, err := domain.NewBuyLimitOrder(now, e.pair.Name, e.settings.Amount, limitPrice, e.pair.LotDecimals, e.pair.QuoteDecimals)
	if err != nil {
		return OutcomeFailed, nil, err
	}

	if order.Volume.LessThan(e.pair.OrderMin) {
		return OutcomeFailed, nil, &OrderTooSmallError{Pair: e.pair.Name, Volume: order.Volume, Min: e.pair.OrderMin}
	}

	if err := e.submit(ctx, &order); err != nil {
		return OutcomeFailed, nil, err
	}

	if err := e.recorder.Record(order); err != nil {
		return OutcomeFailed, &order, errors.Wrap(err, "order submitted but could not be recorded")
	}

	return OutcomePurchased, &order, nil
}

// checkTime compares the local clock against the exchange clock and
// returns the local UTC time the rest of the run works with.
func (e *Engine) checkTime(ctx context.Context) (time.Time, error) {
	unix, err := e.client.GetTime(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "failed to get Kraken time")
	}

	krakenTime := time.Unix(unix, 0).UTC()
	now := e.now().UTC()
	e.l.Info("time check", zap.Time("kraken", krakenTime), zap.Time("system", now))

	lag := now.Sub(krakenTime)
	if lag < 0 {
		lag = -lag
	}
	if lag > maxClockSkew {
		return time.Time{}, &ClockSkewError{Lag: lag}
	}

	return now, nil
}

// checkBalance verifies the quote asset balance covers the configured
// amount. A missing balance entry counts as zero.
func (e *Engine) checkBalance(ctx context.Context) error {
	tradeBalance, err := e.client.GetTradeBalance(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get trade balance")
	}
	e.l.Info("current trade balance", zap.String("eb", tradeBalance.EquivalentBalance))

	balances, err := e.client.GetBalance(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get account balance")
	}

	baseBalance, err := assetBalance(balances, e.pair.Base)
	if err != nil {
		return err
	}
	quoteBalance, err := assetBalance(balances, e.pair.Quote)
	if err != nil {
		return err
	}
	e.l.Info("pair balances",
		zap.String(e.pair.Quote, quoteBalance.String()),
		zap.String(e.pair.Base, baseBalance.String()))

	if quoteBalance.LessThan(e.settings.Amount) {
		return &InsufficientFundsError{Asset: e.pair.Quote, Have: quoteBalance, Need: e.settings.Amount}
	}

	return nil
}

func assetBalance(balances map[string]string, asset string) (decimal.Decimal, error) {
	raw, ok := balances[asset]
	if !ok {
		return decimal.Zero, nil
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "invalid %s balance %q", asset, raw)
	}

	return balance, nil
}

// alreadyPurchased reports whether a qualifying order for the pair
// already exists in the current period, across open and closed orders.
func (e *Engine) alreadyPurchased(ctx context.Context, now time.Time) (bool, error) {
	open, err := e.client.GetOpenOrders(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get open orders")
	}

	start := detector.PeriodStart(now, e.settings.DelayDays)
	closed, err := e.client.GetClosedOrders(ctx, start.Unix())
	if err != nil {
		return false, errors.Wrap(err, "failed to get closed orders")
	}

	var filterAmount *decimal.Decimal
	if e.settings.IgnoreDifferingOrders {
		filterAmount = &e.settings.Amount
	}

	return e.detector.CountPeriodOrders(open, closed, e.pair, filterAmount) > 0, nil
}

func (e *Engine) askPrice(ctx context.Context) (decimal.Decimal, error) {
	tickers, err := e.client.GetTicker(ctx, e.pair.Name)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to get ticker")
	}

	ticker, ok := tickers[e.pair.Name]
	if !ok || len(ticker.Ask) == 0 {
		return decimal.Decimal{}, errors.Wrapf(kraken.ErrResponseFormat, "ticker for %s is missing the ask price", e.pair.Name)
	}

	ask, err := decimal.NewFromString(ticker.Ask[0])
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "invalid ask price %q for %s", ticker.Ask[0], e.pair.Name)
	}

	return ask, nil
}

// limitPrice applies the configured limit factor to the ask price. A
// factor of 1 (within 1e-5) leaves the ask untouched.
func (e *Engine) limitPrice(ask decimal.Decimal) decimal.Decimal {
	if e.settings.LimitFactor.Round(5).Equal(one) {
		return ask
	}

	limit := ask.Mul(e.settings.LimitFactor).RoundBank(e.pair.PairDecimals)
	e.l.Info("factor adjusted limit price",
		zap.String("limit_factor", e.settings.LimitFactor.String()),
		zap.String("limit_price", limit.String()))

	return limit
}

// submit sends the order to the exchange and attaches the returned
// txid and description. Called at most once per order.
func (e *Engine) submit(ctx context.Context, order *domain.Order) error {
	e.l.Info("creating buy limit order",
		zap.String("volume", order.Volume.String()),
		zap.String("limit_price", order.LimitPrice.String()),
		zap.String("estimated_cost", order.EstimatedCost.String()),
		zap.String("estimated_fee", order.EstimatedFee.String()),
		zap.String("total_cost", order.TotalCost.String()))

	confirmation, err := e.client.AddLimitOrder(ctx, order.Pair, true, order.LimitPrice, order.Volume, order.Flags)
	if err != nil {
		return errors.Wrap(err, "failed to create the order")
	}

	if len(confirmation.TxIDs) > 0 {
		order.TxID = confirmation.TxIDs[0]
	}
	order.Description = confirmation.Descr.Order

	e.l.Info("order successfully created",
		zap.String("txid", order.TxID),
		zap.String("description", order.Description))

	return nil
}
