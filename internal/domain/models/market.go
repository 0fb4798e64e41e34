package models

import "time"

// Signal is the backend's classification for a trading pair.
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalNeutral    Signal = "NEUTRAL"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
)

// Signals lists the known classifications in strength order. Unknown values
// coming from the backend are carried through untouched; this service never
// validates backend content.
var Signals = []Signal{SignalStrongBuy, SignalBuy, SignalNeutral, SignalSell, SignalStrongSell}

// MarketEntry is one symbol's signal snapshot as computed by the backend.
// Field names follow the backend's JSON contract.
type MarketEntry struct {
	Signal    Signal  `json:"signal"`
	Score     float64 `json:"score"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
	RSI       float64 `json:"rsi"`
	Volume24h float64 `json:"volume_24h,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

// Snapshot is the full symbol to entry mapping from one backend fetch.
// It is replaced wholesale on each poll, never merged.
type Snapshot struct {
	Entries   map[string]MarketEntry `json:"entries"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// Row pairs a symbol with its entry for ordered presentation.
type Row struct {
	Symbol string      `json:"symbol"`
	Entry  MarketEntry `json:"entry"`
}

// SignalChange is emitted when a symbol's classification flips between polls.
type SignalChange struct {
	Symbol    string    `json:"symbol"`
	From      Signal    `json:"from"`
	To        Signal    `json:"to"`
	Score     float64   `json:"score"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
