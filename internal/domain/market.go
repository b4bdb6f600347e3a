package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceTick is one price update for a symbol. Ticks are transient and never
// persisted.
type PriceTick struct {
	Symbol     string
	Price      decimal.Decimal
	ReceivedAt time.Time
}

// TickStreamFactory opens a live tick stream for one symbol. The returned
// channel yields ticks until ctx is cancelled; transport failures are handled
// internally by reconnecting, so consumers observe a single uninterrupted
// stream. The channel is closed only after all background activity for the
// stream has stopped.
type TickStreamFactory interface {
	Open(ctx context.Context, symbol string) (<-chan PriceTick, error)
}

// Candle is one OHLCV bar as served by the market-data REST API.
type Candle struct {
	Time   float64 `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// CandleSource retrieves historical candles for a trading pair symbol
// (e.g. BTCUSDT).
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// UpstreamError reports a non-2xx reply from the market data provider,
// keeping the provider's status code and message for callers that relay them.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}
