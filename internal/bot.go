// Package internal wires the per-pair DCA engines into one batch run.
package internal

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/kraken"
	"github.com/vadiminshakov/krakendca/internal/services/dca"
	"github.com/vadiminshakov/krakendca/internal/services/pairs"
	"github.com/vadiminshakov/krakendca/internal/storage/orders"
	"go.uber.org/zap"
)

type exchange interface {
	GetTime(ctx context.Context) (int64, error)
	GetAssetPairs(ctx context.Context) (map[string]kraken.AssetPairInfo, error)
	GetAssets(ctx context.Context) (map[string]kraken.AssetInfo, error)
	GetBalance(ctx context.Context) (map[string]string, error)
	GetTradeBalance(ctx context.Context) (kraken.TradeBalance, error)
	GetTicker(ctx context.Context, pair string) (map[string]kraken.Ticker, error)
	GetOpenOrders(ctx context.Context) (map[string]kraken.OrderInfo, error)
	GetClosedOrders(ctx context.Context, start int64) (map[string]kraken.OrderInfo, error)
	AddLimitOrder(ctx context.Context, pair string, buy bool, price, volume decimal.Decimal, oflags string) (kraken.OrderConfirmation, error)
}

// Bot runs every configured pair through its own DCA engine, one pass
// per process invocation. Pairs run sequentially and independently: a
// failing pair is reported and the next one still runs.
type Bot struct {
	client   exchange
	recorder orders.Recorder
	cfg      config.Config
	l        *zap.Logger
}

// NewBot returns a bot for the given configuration.
func NewBot(l *zap.Logger, client exchange, recorder orders.Recorder, cfg config.Config) *Bot {
	return &Bot{client: client, recorder: recorder, cfg: cfg, l: l}
}

// Run fetches the exchange metadata once, resolves every configured
// pair against it and executes the engines. The returned error covers
// only run-wide failures; per-pair failures live in the results.
func (b *Bot) Run(ctx context.Context) ([]dca.Result, error) {
	pairsMeta, err := b.client.GetAssetPairs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get asset pairs")
	}
	assetsMeta, err := b.client.GetAssets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get assets")
	}

	results := make([]dca.Result, 0, len(b.cfg.Pairs))
	for _, pc := range b.cfg.Pairs {
		pair, err := pairs.Resolve(pairsMeta, assetsMeta, pc.Pair)
		if err != nil {
			b.l.Error("cannot resolve pair", zap.String("pair", pc.Pair), zap.Error(err))
			results = append(results, dca.Result{Pair: pc.Pair, Outcome: dca.OutcomeFailed, Err: err})
			continue
		}

		b.logPairConfig(pc, pair)

		engine := dca.NewEngine(b.l, b.client, b.recorder, pair, dca.Settings{
			DelayDays:             pc.DelayDays,
			Amount:                pc.Amount,
			LimitFactor:           pc.LimitFactor,
			MaxPrice:              pc.MaxPrice,
			IgnoreDifferingOrders: pc.IgnoreDifferingOrders,
		})

		result := engine.Run(ctx)
		if result.Err != nil {
			b.l.Error("dca run failed", zap.String("pair", pc.Pair), zap.Error(result.Err))
		}
		results = append(results, result)
	}

	return results, nil
}

// logPairConfig announces the effective settings of a pair, mentioning
// the optional ones only when they deviate from the defaults.
func (b *Bot) logPairConfig(pc config.PairConfig, pair domain.Pair) {
	fields := []zap.Field{
		zap.String("pair", pair.Describe()),
		zap.Int("delay_days", pc.DelayDays),
		zap.String("amount", pc.Amount.String()),
	}
	if !pc.LimitFactor.Equal(decimal.NewFromInt(1)) {
		fields = append(fields, zap.String("limit_factor", pc.LimitFactor.String()))
	}
	if pc.MaxPrice != nil {
		fields = append(fields, zap.String("max_price", pc.MaxPrice.String()))
	}
	if pc.IgnoreDifferingOrders {
		fields = append(fields, zap.Bool("ignore_differing_orders", true))
	}

	b.l.Info("dollar cost averaging", fields...)
}

// AnyFailed reports whether at least one pair ended in failure, for
// the process exit status.
func AnyFailed(results []dca.Result) bool {
	for _, r := range results {
		if r.Outcome == dca.OutcomeFailed {
			return true
		}
	}

	return false
}
