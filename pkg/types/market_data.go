package types

import "time"

// Bar is one OHLCV candle for a single symbol. Bars are immutable once
// emitted by a feed; OpenTime is unique and strictly increasing per symbol.
type Bar struct {
	Symbol   string
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Ticker is a lightweight last-price snapshot from the exchange.
type Ticker struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Balance represents an exchange account balance for one asset.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}
