package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const HelpText = `Commands:
/start - register and open the MiniApp
/help - show this help
/alerts - list your active price alerts

Alerts are managed in the MiniApp: pick a cryptocurrency, a target price and
a direction, and the bot will message you once the price crosses it.
`

type Handlers struct {
	userUC     *usecase.UserUsecase
	alertUC    *usecase.AlertUsecase
	miniAppURL string
	logger     *zap.Logger
}

func NewHandlers(userUC *usecase.UserUsecase, alertUC *usecase.AlertUsecase, miniAppURL string, logger *zap.Logger) *Handlers {
	return &Handlers{userUC: userUC, alertUC: alertUC, miniAppURL: miniAppURL, logger: logger}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	if update.Message.From == nil {
		return
	}
	if update.Message.IsCommand() {
		h.handleCommand(ctx, api, update)
		return
	}
}

func (h *Handlers) handleCommand(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	command := update.Message.Command()
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	username := update.Message.From.UserName

	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", userID),
		zap.String("username", username),
		zap.String("command", command),
	)

	switch command {
	case "start":
		_, err := h.userUC.Register(ctx, userID, username)
		if err != nil {
			h.logger.Warn("start command failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(api, chatID, "Failed to register. Please try again.")
			return
		}

		text := fmt.Sprintf(
			"Hi, %s! 👋\n\nI track cryptocurrency prices for you.\nOpen the MiniApp below to set up price alerts.",
			update.Message.From.FirstName,
		)
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = miniAppKeyboard(h.miniAppURL)
		if _, err := api.Send(msg); err != nil {
			h.logger.Warn("failed to reply", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	case "help":
		h.reply(api, chatID, HelpText)
	case "alerts":
		alerts, err := h.alertUC.ListAlerts(ctx, userID)
		if err != nil {
			h.logger.Warn("alerts list failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(api, chatID, "Failed to load your alerts. Please try again.")
			return
		}
		if len(alerts) == 0 {
			h.reply(api, chatID, "No active alerts. Open the MiniApp to create one.")
			return
		}

		var builder strings.Builder
		builder.WriteString("Your active alerts:\n")
		for _, alert := range alerts {
			direction := "above"
			if !alert.IsAbove {
				direction = "below"
			}
			builder.WriteString(fmt.Sprintf("#%d %s %s $%s\n", alert.ID, alert.Cryptocurrency, direction, alert.TargetPrice.StringFixed(2)))
		}
		h.reply(api, chatID, builder.String())
	default:
		h.reply(api, chatID, "Unknown command.\n\n"+HelpText)
	}
}

func (h *Handlers) reply(api *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := api.Send(msg); err != nil {
		h.logger.Warn("failed to reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func miniAppKeyboard(url string) tgbotapi.InlineKeyboardMarkup {
	button := tgbotapi.NewInlineKeyboardButtonURL("🚀 Open MiniApp", url)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button))
}
