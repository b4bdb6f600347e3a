package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"go.uber.org/zap"
)

// RESTClient retrieves historical candles from the Binance REST API.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRESTClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RESTClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *RESTClient) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	endpoint.Path = "/api/v3/klines"

	query := endpoint.Query()
	query.Set("symbol", strings.ToUpper(strings.TrimSpace(symbol)))
	query.Set("interval", interval)
	query.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create klines request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}

	var klines [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&klines); err != nil {
		return nil, fmt.Errorf("decode klines response: %w", err)
	}

	candles := make([]domain.Candle, 0, len(klines))
	for _, kline := range klines {
		candle, err := parseKline(kline)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// upstreamError keeps the Binance status code and error message so the API
// layer can relay them.
func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
		message = apiErr.Msg
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &domain.UpstreamError{StatusCode: resp.StatusCode, Message: message}
}

// parseKline maps one raw kline row: open time in ms followed by
// open/high/low/close/volume as strings.
func parseKline(kline []json.RawMessage) (domain.Candle, error) {
	if len(kline) < 6 {
		return domain.Candle{}, fmt.Errorf("kline row has %d fields, want at least 6", len(kline))
	}

	var openTimeMillis float64
	if err := json.Unmarshal(kline[0], &openTimeMillis); err != nil {
		return domain.Candle{}, fmt.Errorf("parse kline open time: %w", err)
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var raw string
		if err := json.Unmarshal(kline[i], &raw); err != nil {
			return domain.Candle{}, fmt.Errorf("parse kline field %d: %w", i, err)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parse kline field %d: %w", i, err)
		}
		values[i-1] = value
	}

	return domain.Candle{
		Time:   openTimeMillis / 1000,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

var _ domain.CandleSource = (*RESTClient)(nil)
