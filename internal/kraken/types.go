package kraken

// Typed views over the API's JSON payloads. Only the fields the bot
// reads are mapped; everything else is dropped at the boundary.

// AssetPairInfo is the static metadata of a tradeable pair.
type AssetPairInfo struct {
	AltName      string `json:"altname"`
	Base         string `json:"base"`
	Quote        string `json:"quote"`
	PairDecimals int32  `json:"pair_decimals"`
	LotDecimals  int32  `json:"lot_decimals"`
	OrderMin     string `json:"ordermin"`
}

// AssetInfo is the static metadata of a single asset.
type AssetInfo struct {
	AltName  string `json:"altname"`
	Decimals int32  `json:"decimals"`
}

// TradeBalance is the account-wide trade balance summary.
type TradeBalance struct {
	// EquivalentBalance is the combined balance of all currencies ("eb").
	EquivalentBalance string `json:"eb"`
}

// Ticker carries the ticker fields for one pair. Ask is the
// [price, whole lot volume, lot volume] triplet ("a").
type Ticker struct {
	Ask []string `json:"a"`
}

// OrderDescription is the human-readable order info nested in order
// records and order confirmations.
type OrderDescription struct {
	Pair  string `json:"pair"`
	Order string `json:"order"`
}

// OrderInfo is a read-only view of an open or closed order record.
type OrderInfo struct {
	Descr  OrderDescription `json:"descr"`
	Cost   string           `json:"cost"`
	Status string           `json:"status"`
}

// OrderConfirmation is the response to a successfully placed order.
type OrderConfirmation struct {
	TxIDs []string         `json:"txid"`
	Descr OrderDescription `json:"descr"`
}

type serverTime struct {
	UnixTime int64 `json:"unixtime"`
}

type openOrdersResult struct {
	Open map[string]OrderInfo `json:"open"`
}

type closedOrdersResult struct {
	Closed map[string]OrderInfo `json:"closed"`
}
