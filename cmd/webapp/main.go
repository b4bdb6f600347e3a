package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/config"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/delivery/httpapi"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/infra/binance"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/infra/db"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/infra/log"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open database:", err)
		os.Exit(1)
	}
	defer func() {
		if sqlDB, err := dbConn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	alertRepo := db.NewAlertRepository(dbConn)
	alertUC := usecase.NewAlertUsecase(alertRepo, cfg.Cryptocurrencies)
	candles := binance.NewRESTClient(cfg.BinanceRESTBaseURL, cfg.BinanceHTTPTimeout, logger)

	handlers := httpapi.NewHandlers(alertUC, candles, logger)
	server := httpapi.NewServer(handlers, cfg.HTTPAddr, cfg.StaticDir, logger)

	if err := server.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "http server error:", err)
		os.Exit(1)
	}
}
