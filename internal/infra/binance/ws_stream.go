package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dialTimeout      = 10 * time.Second
	readTimeout      = 90 * time.Second
	initialReconnect = 500 * time.Millisecond
)

// StreamFactory opens one Binance ticker websocket per symbol.
type StreamFactory struct {
	wsURL        string
	maxReconnect time.Duration
	dialer       *websocket.Dialer
	logger       *zap.Logger
}

func NewStreamFactory(wsURL string, maxReconnect time.Duration, logger *zap.Logger) *StreamFactory {
	if maxReconnect <= 0 {
		maxReconnect = 5 * time.Second
	}
	return &StreamFactory{
		wsURL:        strings.TrimRight(strings.TrimSpace(wsURL), "/"),
		maxReconnect: maxReconnect,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: dialTimeout,
		},
		logger: logger,
	}
}

// Open starts streaming ticks for the symbol. The background goroutine owns
// the connection, reconnects on transport failures, and closes the returned
// channel only after it has fully unwound; no tick is delivered after the
// channel closes.
func (f *StreamFactory) Open(ctx context.Context, symbol string) (<-chan domain.PriceTick, error) {
	streamURL, err := f.buildStreamURL(symbol)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.PriceTick, 64)
	go f.run(ctx, strings.ToUpper(symbol), streamURL, out)
	return out, nil
}

func (f *StreamFactory) buildStreamURL(symbol string) (string, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("empty symbol")
	}
	if f.wsURL == "" {
		return "", fmt.Errorf("ws url not configured")
	}

	u, err := url.Parse(f.wsURL)
	if err != nil {
		return "", fmt.Errorf("parse ws url: %w", err)
	}
	u.Path = fmt.Sprintf("/ws/%susdt@ticker", symbol)
	return u.String(), nil
}

func (f *StreamFactory) run(ctx context.Context, symbol, streamURL string, out chan<- domain.PriceTick) {
	defer close(out)

	backoff := initialReconnect

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		conn, _, err := f.dialer.DialContext(dialCtx, streamURL, nil)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.logger.Warn("ws dial failed", zap.String("symbol", symbol), zap.Error(err))
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = minDuration(backoff*2, f.maxReconnect)
			continue
		}

		f.logger.Info("ws connected", zap.String("symbol", symbol), zap.String("url", streamURL))
		backoff = initialReconnect

		err = f.consume(ctx, conn, symbol, out)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		f.logger.Warn("ws disconnected, reconnecting", zap.String("symbol", symbol), zap.Error(err))
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = minDuration(backoff*2, f.maxReconnect)
	}
}

// consume reads ticker frames until the connection fails or ctx is cancelled.
// A watcher closes the connection on cancellation to unblock the read.
func (f *StreamFactory) consume(ctx context.Context, conn *websocket.Conn, symbol string, out chan<- domain.PriceTick) error {
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-connDone:
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		tick, ok := f.decode(symbol, data)
		if !ok {
			continue
		}

		select {
		case out <- tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type tickerMessage struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
}

func (f *StreamFactory) decode(symbol string, data []byte) (domain.PriceTick, bool) {
	var msg tickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		f.logger.Warn("ws message ignored", zap.String("symbol", symbol), zap.Error(err))
		return domain.PriceTick{}, false
	}
	if strings.TrimSpace(msg.LastPrice) == "" {
		return domain.PriceTick{}, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(msg.LastPrice))
	if err != nil {
		f.logger.Warn("ws price unparseable", zap.String("symbol", symbol), zap.String("price", msg.LastPrice), zap.Error(err))
		return domain.PriceTick{}, false
	}
	if !price.IsPositive() {
		return domain.PriceTick{}, false
	}

	return domain.PriceTick{
		Symbol:     symbol,
		Price:      price,
		ReceivedAt: time.Now(),
	}, true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

var _ domain.TickStreamFactory = (*StreamFactory)(nil)
