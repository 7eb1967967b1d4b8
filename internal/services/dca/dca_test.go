package dca

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/kraken"
	"go.uber.org/zap"
)

// fakeExchange implements the exchange interface with overridable
// behavior per test. The zero value answers every call with a sane
// happy-path response.
type fakeExchange struct {
	time         func() (int64, error)
	balance      map[string]string
	balanceErr   error
	openOrders   map[string]kraken.OrderInfo
	closedOrders map[string]kraken.OrderInfo
	closedStart  int64
	askPrice     string
	addOrder     func(pair string, buy bool, price, volume decimal.Decimal, oflags string) (kraken.OrderConfirmation, error)
	addedOrders  int
}

func (f *fakeExchange) GetTime(ctx context.Context) (int64, error) {
	if f.time != nil {
		return f.time()
	}
	return time.Now().Unix(), nil
}

func (f *fakeExchange) GetBalance(ctx context.Context) (map[string]string, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if f.balance != nil {
		return f.balance, nil
	}
	return map[string]string{"ZEUR": "1000.0", "XETH": "0.5"}, nil
}

func (f *fakeExchange) GetTradeBalance(ctx context.Context) (kraken.TradeBalance, error) {
	return kraken.TradeBalance{EquivalentBalance: "1000.0"}, nil
}

func (f *fakeExchange) GetTicker(ctx context.Context, pair string) (map[string]kraken.Ticker, error) {
	ask := f.askPrice
	if ask == "" {
		ask = "1802.82"
	}
	return map[string]kraken.Ticker{pair: {Ask: []string{ask, "10", "10.000"}}}, nil
}

func (f *fakeExchange) GetOpenOrders(ctx context.Context) (map[string]kraken.OrderInfo, error) {
	return f.openOrders, nil
}

func (f *fakeExchange) GetClosedOrders(ctx context.Context, start int64) (map[string]kraken.OrderInfo, error) {
	f.closedStart = start
	return f.closedOrders, nil
}

func (f *fakeExchange) AddLimitOrder(ctx context.Context, pair string, buy bool, price, volume decimal.Decimal, oflags string) (kraken.OrderConfirmation, error) {
	f.addedOrders++
	if f.addOrder != nil {
		return f.addOrder(pair, buy, price, volume, oflags)
	}
	return kraken.OrderConfirmation{
		TxIDs: []string{"OUHXFN-RTP6W-ART4VP"},
		Descr: kraken.OrderDescription{Order: "buy order"},
	}, nil
}

type fakeRecorder struct {
	recorded []domain.Order
	err      error
}

func (r *fakeRecorder) Record(order domain.Order) error {
	if r.err != nil {
		return r.err
	}
	r.recorded = append(r.recorded, order)
	return nil
}

func testEnginePair() domain.Pair {
	return domain.Pair{
		Name:          "XETHZEUR",
		AltName:       "ETHEUR",
		Base:          "XETH",
		Quote:         "ZEUR",
		PairDecimals:  2,
		LotDecimals:   8,
		QuoteDecimals: 4,
		OrderMin:      decimal.RequireFromString("0.01"),
	}
}

func testSettings() Settings {
	return Settings{
		DelayDays:   1,
		Amount:      decimal.NewFromInt(20),
		LimitFactor: decimal.NewFromInt(1),
	}
}

func newTestEngine(client *fakeExchange, rec *fakeRecorder, settings Settings) *Engine {
	return NewEngine(zap.NewNop(), client, rec, testEnginePair(), settings)
}

func TestEnginePurchase(t *testing.T) {
	client := &fakeExchange{}
	rec := &fakeRecorder{}

	result := newTestEngine(client, rec, testSettings()).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, OutcomePurchased, result.Outcome)
	require.NotNil(t, result.Order)

	require.Equal(t, "0.01106496", result.Order.Volume.String())
	require.Equal(t, "1802.82", result.Order.LimitPrice.String())
	require.Equal(t, "OUHXFN-RTP6W-ART4VP", result.Order.TxID)
	require.Equal(t, "buy order", result.Order.Description)

	require.Len(t, rec.recorded, 1)
	require.Equal(t, 1, client.addedOrders)
}

func TestEngineClockSkew(t *testing.T) {
	client := &fakeExchange{
		time: func() (int64, error) { return time.Now().Add(-5 * time.Second).Unix(), nil },
	}
	rec := &fakeRecorder{}

	result := newTestEngine(client, rec, testSettings()).Run(context.Background())
	require.Equal(t, OutcomeFailed, result.Outcome)

	var skew *ClockSkewError
	require.True(t, errors.As(result.Err, &skew))
	require.Equal(t, 0, client.addedOrders)
}

func TestEngineToleratesSmallClockSkew(t *testing.T) {
	client := &fakeExchange{
		time: func() (int64, error) { return time.Now().Add(-1 * time.Second).Unix(), nil },
	}
	rec := &fakeRecorder{}

	result := newTestEngine(client, rec, testSettings()).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, OutcomePurchased, result.Outcome)
}

func TestEngineInsufficientFunds(t *testing.T) {
	client := &fakeExchange{
		balance: map[string]string{"ZEUR": "19.99"},
	}
	rec := &fakeRecorder{}

	result := newTestEngine(client, rec, testSettings()).Run(context.Background())
	require.Equal(t, OutcomeFailed, result.Outcome)

	var funds *InsufficientFundsError
	require.True(t, errors.As(result.Err, &funds))
	require.Equal(t, "ZEUR", funds.Asset)
	require.Equal(t, 0, client.addedOrders)
}

func TestEngineMissingBalanceEntryIsZero(t *testing.T) {
	client := &fakeExchange{
		balance: map[string]string{},
	}
	rec := &fakeRecorder{}

	result := newTestEngine(client, rec, testSettings()).Run(context.Background())
	require.Equal(t, OutcomeFailed, result.Outcome)

	var funds *InsufficientFundsError
	require.True(t, errors.As(result.Err, &funds))
	require.True(t, funds.Have.IsZero())
}

func TestEngineSkipsWhenAlreadyPurchased(t *testing.T) {
	client := &fakeExchange{
		closedOrders: map[string]kraken.OrderInfo{
			"C1": {Descr: kraken.OrderDescription{Pair: "ETHEUR"}, Cost: "19.93"},
		},
	}
	rec := &fakeRecorder{}
	engine := newTestEngine(client, rec, testSettings())

	// the engine must stay idempotent within a period: run twice,
	// submit nothing either time
	for i := 0; i < 2; i++ {
		result := engine.Run(context.Background())
		require.NoError(t, result.Err)
		require.Equal(t, OutcomeSkipped, result.Outcome)
	}
	require.Equal(t, 0, client.addedOrders)
	require.Empty(t, rec.recorded)

	// closed orders were queried from the period start
	expectedStart := detectorPeriodStart(t, 1)
	require.Equal(t, expectedStart, client.closedStart)
}

func detectorPeriodStart(t *testing.T, delayDays int) int64 {
	t.Helper()

	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(delayDays - 1)).Unix()
}

func TestEngineIgnoresDifferingForeignOrders(t *testing.T) {
	client := &fakeExchange{
		openOrders: map[string]kraken.OrderInfo{
			// a manual 350 EUR buy should not block a 20 EUR DCA
			"O1": {Descr: kraken.OrderDescription{Pair: "ETHEUR"}, Cost: "350.00"},
		},
	}
	rec := &fakeRecorder{}

	settings := testSettings()
	settings.IgnoreDifferingOrders = true

	result := newTestEngine(client, rec, settings).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, OutcomePurchased, result.Outcome)
}

func TestEngineLimitFactor(t *testing.T) {
	client := &fakeExchange{askPrice: "3896.01"}
	rec := &fakeRecorder{}

	settings := testSettings()
	settings.LimitFactor = decimal.RequireFromString("0.9")
	settings.Amount = decimal.NewFromInt(100)

	result := newTestEngine(client, rec, settings).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, OutcomePurchased, result.Outcome)
	require.Equal(t, "3506.41", result.Order.LimitPrice.String())
}

func TestEngineRejectsAboveMaxPrice(t *testing.T) {
	client := &fakeExchange{askPrice: "3896.01"}
	rec := &fakeRecorder{}

	maxPrice := decimal.NewFromInt(3000)
	settings := testSettings()
	settings.MaxPrice = &maxPrice

	result := newTestEngine(client, rec, settings).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, OutcomeRejected, result.Outcome)
	require.Equal(t, 0, client.addedOrders)
}

func TestEngineMaxPriceAppliesToFactorAdjustedPrice(t *testing.T) {
	client := &fakeExchange{askPrice: "3896.01"}
	rec := &fakeRecorder{}

	// ask is above max_price but the factor-adjusted limit is below
	maxPrice := decimal.NewFromInt(3600)
	settings := testSettings()
	settings.LimitFactor = decimal.RequireFromString("0.9")
	settings.MaxPrice = &maxPrice
	settings.Amount = decimal.NewFromInt(100)

	result := newTestEngine(client, rec, settings).Run(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, OutcomePurchased, result.Outcome)
}

func TestEngineOrderTooSmall(t *testing.T) {
	client := &fakeExchange{}
	rec := &fakeRecorder{}

	settings := testSettings()
	settings.Amount = decimal.NewFromInt(1) // 1 EUR buys less than ordermin 0.01 ETH

	result := newTestEngine(client, rec, settings).Run(context.Background())
	require.Equal(t, OutcomeFailed, result.Outcome)

	var tooSmall *OrderTooSmallError
	require.True(t, errors.As(result.Err, &tooSmall))
	require.Equal(t, 0, client.addedOrders)
}

func TestEngineSurfacesExchangeErrorOnSubmit(t *testing.T) {
	client := &fakeExchange{
		addOrder: func(string, bool, decimal.Decimal, decimal.Decimal, string) (kraken.OrderConfirmation, error) {
			return kraken.OrderConfirmation{}, &kraken.ExchangeError{Message: "EOrder:Insufficient funds"}
		},
	}
	rec := &fakeRecorder{}

	result := newTestEngine(client, rec, testSettings()).Run(context.Background())
	require.Equal(t, OutcomeFailed, result.Outcome)

	var exchangeErr *kraken.ExchangeError
	require.True(t, errors.As(result.Err, &exchangeErr))
	require.Empty(t, rec.recorded)
}

func TestEngineReportsRecorderFailure(t *testing.T) {
	client := &fakeExchange{}
	rec := &fakeRecorder{err: errors.New("disk full")}

	result := newTestEngine(client, rec, testSettings()).Run(context.Background())
	require.Equal(t, OutcomeFailed, result.Outcome)
	// the order went out even though recording failed
	require.Equal(t, 1, client.addedOrders)
	require.NotNil(t, result.Order)
	require.Contains(t, result.Err.Error(), "submitted")
}
