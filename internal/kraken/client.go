package kraken

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Client requests Kraken API endpoints over HTTP. It owns the
// credentials and the nonce sequence; it performs no retries, an
// external supervisor re-invoking the process is the retry mechanism.
type Client struct {
	creds     Credentials
	http      *http.Client
	baseURL   string
	nonce     func() string
	lastNonce atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient returns a client for the given credentials.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:   creds,
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
	c.nonce = c.nextNonce

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// nextNonce returns wall-clock milliseconds, bumped past the previous
// value when calls land in the same millisecond. The exchange rejects a
// nonce it has already seen, so the sequence must never repeat or
// regress within a session.
func (c *Client) nextNonce() string {
	for {
		nonce := time.Now().UnixMilli()
		last := c.lastNonce.Load()
		if nonce <= last {
			nonce = last + 1
		}
		if c.lastNonce.CompareAndSwap(last, nonce) {
			return strconv.FormatInt(nonce, 10)
		}
	}
}

// envelope is the top-level response shape shared by every endpoint.
type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// call sends a request for the given method and decodes the result
// object into out. A non-empty error array in the envelope surfaces as
// *ExchangeError.
func (c *Client) call(ctx context.Context, public bool, method string, params Params, out any) error {
	req, err := c.buildRequest(public, method, params)
	if err != nil {
		return err
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return errors.Wrapf(ErrMalformedRequest, "%s: %s", method, err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrapf(ErrTransport, "%s: %s", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(ErrTransport, "%s: %s", method, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return errors.Wrapf(ErrTransport, "%s: HTTP %d with unparsable body", method, resp.StatusCode)
		}
		return errors.Wrapf(ErrResponseFormat, "%s: %s", method, err)
	}

	if len(env.Error) > 0 {
		return &ExchangeError{Message: env.Error[0]}
	}

	if out == nil {
		return nil
	}
	if len(env.Result) == 0 {
		return errors.Wrapf(ErrResponseFormat, "%s: missing result", method)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return errors.Wrapf(ErrResponseFormat, "%s: %s", method, err)
	}

	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *request) (*http.Request, error) {
	method := http.MethodGet
	var body io.Reader
	if len(req.body) > 0 {
		method = http.MethodPost
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.path, body)
	if err != nil {
		return nil, err
	}
	if len(req.body) > 0 {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// GetTime returns the exchange time as unix seconds.
func (c *Client) GetTime(ctx context.Context) (int64, error) {
	var result serverTime
	if err := c.call(ctx, true, "Time", nil, &result); err != nil {
		return 0, err
	}

	return result.UnixTime, nil
}

// GetAssetPairs returns the metadata of every tradeable pair.
func (c *Client) GetAssetPairs(ctx context.Context) (map[string]AssetPairInfo, error) {
	result := make(map[string]AssetPairInfo)
	if err := c.call(ctx, true, "AssetPairs", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// GetAssets returns the metadata of every listed asset.
func (c *Client) GetAssets(ctx context.Context) (map[string]AssetInfo, error) {
	result := make(map[string]AssetInfo)
	if err := c.call(ctx, true, "Assets", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// GetBalance returns per-asset account balances as decimal strings.
func (c *Client) GetBalance(ctx context.Context) (map[string]string, error) {
	result := make(map[string]string)
	if err := c.call(ctx, false, "Balance", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// GetTradeBalance returns the account trade balance summary.
func (c *Client) GetTradeBalance(ctx context.Context) (TradeBalance, error) {
	var result TradeBalance
	if err := c.call(ctx, false, "TradeBalance", nil, &result); err != nil {
		return TradeBalance{}, err
	}

	return result, nil
}

// GetTicker returns ticker information keyed by pair name.
func (c *Client) GetTicker(ctx context.Context, pair string) (map[string]Ticker, error) {
	result := make(map[string]Ticker)
	params := Params{{Key: "pair", Value: pair}}
	if err := c.call(ctx, true, "Ticker", params, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// GetOpenOrders returns the account's open orders keyed by transaction id.
func (c *Client) GetOpenOrders(ctx context.Context) (map[string]OrderInfo, error) {
	var result openOrdersResult
	if err := c.call(ctx, false, "OpenOrders", nil, &result); err != nil {
		return nil, err
	}

	return result.Open, nil
}

// GetClosedOrders returns orders whose close time is at or after start
// (unix seconds), keyed by transaction id.
func (c *Client) GetClosedOrders(ctx context.Context, start int64) (map[string]OrderInfo, error) {
	var result closedOrdersResult
	params := Params{
		{Key: "start", Value: strconv.FormatInt(start, 10)},
		{Key: "closetime", Value: "open"},
	}
	if err := c.call(ctx, false, "ClosedOrders", params, &result); err != nil {
		return nil, err
	}

	return result.Closed, nil
}

// AddLimitOrder places a limit order and returns the exchange's
// confirmation with transaction ids and order description.
func (c *Client) AddLimitOrder(ctx context.Context, pair string, buy bool, price, volume decimal.Decimal, oflags string) (OrderConfirmation, error) {
	side := "sell"
	if buy {
		side = "buy"
	}
	params := Params{
		{Key: "pair", Value: pair},
		{Key: "type", Value: side},
		{Key: "ordertype", Value: "limit"},
		{Key: "price", Value: price.String()},
		{Key: "volume", Value: volume.String()},
		{Key: "oflags", Value: oflags},
	}

	var result OrderConfirmation
	if err := c.call(ctx, false, "AddOrder", params, &result); err != nil {
		return OrderConfirmation{}, err
	}

	return result, nil
}
