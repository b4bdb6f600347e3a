package app

import (
	"context"
	"errors"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/config"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/delivery/telegram"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/infra/binance"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/infra/db"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/infra/log"
	"github.com/ShcoderDev/crypto-alerts-bot/internal/usecase"
	"go.uber.org/zap"
)

// App wires the bot process: the Telegram command surface plus the price
// monitor that drives alert notifications.
type App struct {
	bot         *telegram.Bot
	monitor     *usecase.PriceMonitor
	logger      *zap.Logger
	monitorDone chan struct{}
	cleanupFn   func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	userRepo := db.NewUserRepository(dbConn)
	alertRepo := db.NewAlertRepository(dbConn)
	streamFactory := binance.NewStreamFactory(cfg.BinanceWSURL, cfg.MonitorReconnectDelay, logger)

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}

	notifier := telegram.NewNotifier(api, logger)
	dispatcher := usecase.NewDispatcher(alertRepo, notifier, logger)
	monitor := usecase.NewPriceMonitor(alertRepo, streamFactory, dispatcher, cfg.MonitorSyncInterval, logger)

	userUC := usecase.NewUserUsecase(userRepo)
	alertUC := usecase.NewAlertUsecase(alertRepo, cfg.Cryptocurrencies)
	handlers := telegram.NewHandlers(userUC, alertUC, cfg.MiniAppURL, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout)

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{bot: bot, monitor: monitor, logger: logger, cleanupFn: cleanup}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("crypto alerts bot starting")

	a.monitorDone = make(chan struct{})
	go func() {
		defer close(a.monitorDone)
		if err := a.monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("price monitor terminated", zap.Error(err))
		}
	}()

	a.logger.Info("crypto alerts bot started")
	return a.bot.Start(ctx)
}

func (a *App) Shutdown() {
	a.logger.Info("crypto alerts bot shutting down")
	if a.monitorDone != nil {
		<-a.monitorDone
	}
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
