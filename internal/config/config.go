package config

import (
	"context"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken string `env:"BOT_TOKEN,required"`
	MiniAppURL       string `env:"MINIAPP_URL,required"`

	// DBDriver selects the gorm backend: "sqlite" or "postgres".
	DBDriver          string        `env:"DB_DRIVER,default=sqlite"`
	DBPath            string        `env:"DB_PATH,default=database.db"`
	DBHost            string        `env:"DB_HOST,default=localhost"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,default=postgres"`
	DBPassword        string        `env:"DB_PASSWORD,default="`
	DBName            string        `env:"DB_NAME,default=crypto_alerts"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	BinanceWSURL       string        `env:"BINANCE_WS_URL,default=wss://stream.binance.com:9443"`
	BinanceRESTBaseURL string        `env:"BINANCE_REST_BASE_URL,default=https://api.binance.com"`
	BinanceHTTPTimeout time.Duration `env:"BINANCE_HTTP_TIMEOUT,default=10s"`

	// MonitorSyncInterval bounds how long a changed alert set can go
	// unnoticed by the subscription set.
	MonitorSyncInterval   time.Duration `env:"MONITOR_SYNC_INTERVAL,default=10s"`
	MonitorReconnectDelay time.Duration `env:"MONITOR_RECONNECT_DELAY,default=5s"`

	HTTPAddr  string `env:"HTTP_ADDR,default=:8000"`
	StaticDir string `env:"STATIC_DIR,default="`

	// Cryptocurrencies is the comma-separated list of supported tickers.
	Cryptocurrencies []string `env:"CRYPTOCURRENCIES,default=BTC,ETH,BNB,SOL,XRP,ADA,DOGE,DOT,MATIC,AVAX"`

	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	for i, symbol := range cfg.Cryptocurrencies {
		cfg.Cryptocurrencies[i] = strings.ToUpper(strings.TrimSpace(symbol))
	}
	return cfg, nil
}

// SupportsCryptocurrency reports whether the ticker is in the configured list.
func (c Config) SupportsCryptocurrency(symbol string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	for _, supported := range c.Cryptocurrencies {
		if supported == normalized {
			return true
		}
	}
	return false
}
