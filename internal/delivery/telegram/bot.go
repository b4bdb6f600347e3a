package telegram

import (
	"context"
	"net/http"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// apiTimeout bounds every Bot API call; the default tgbotapi client has no
// timeout and a stalled send would hang its caller indefinitely. It must stay
// above the getUpdates long-poll window, which shares the same client.
const apiTimeout = 90 * time.Second

type Bot struct {
	api         *tgbotapi.BotAPI
	handlers    *Handlers
	pollTimeout int
}

func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: apiTimeout})
}

func NewBot(api *tgbotapi.BotAPI, handlers *Handlers, pollTimeout int) *Bot {
	return &Bot{api: api, handlers: handlers, pollTimeout: pollTimeout}
}

func (b *Bot) Start(ctx context.Context) error {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(config)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handlers.HandleUpdate(ctx, b.api, update)
		}
	}
}

// Notifier delivers alert notifications through the bot API.
type Notifier struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, logger: logger}
}

// Notify sends the text to the user. The send itself is bounded by the API
// client timeout; ctx is checked up front so an already-cancelled caller does
// not dispatch at all.
func (n *Notifier) Notify(ctx context.Context, telegramUserID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(telegramUserID, text)
	_, err := n.api.Send(msg)
	if err != nil {
		n.logger.Warn("failed to notify", zap.Int64("telegram_user_id", telegramUserID), zap.Error(err))
	}
	return err
}

var _ usecase.Notifier = (*Notifier)(nil)
