package usecase

import (
	"context"
	"fmt"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Notifier interface {
	// Notify delivers the text to the user. Implementations must honour ctx
	// so a cancelled caller is never left waiting on a hung send.
	Notify(ctx context.Context, telegramUserID int64, text string) error
}

// Dispatcher delivers a fired alert to its owner and deactivates it. The send
// and the deactivation are not transactional: a deactivation failure after a
// successful send means the user may receive the same notification once more
// on the next qualifying tick.
type Dispatcher struct {
	alerts   domain.AlertRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewDispatcher(alerts domain.AlertRepository, notifier Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{alerts: alerts, notifier: notifier, logger: logger}
}

// Dispatch returns true when the notification was delivered. On delivery
// failure the alert stays active and will be retried on the next tick that
// satisfies its condition.
func (d *Dispatcher) Dispatch(ctx context.Context, alert domain.PriceAlert, price decimal.Decimal) bool {
	if ctx.Err() != nil {
		return false
	}
	text := formatAlertMessage(alert, price)

	if err := d.notifier.Notify(ctx, alert.UserID, text); err != nil {
		d.logger.Warn("failed to send alert notification",
			zap.Uint("alert_id", alert.ID),
			zap.Int64("user_id", alert.UserID),
			zap.Error(err),
		)
		return false
	}

	if err := d.alerts.Deactivate(ctx, alert.ID); err != nil {
		d.logger.Error("failed to deactivate fired alert",
			zap.Uint("alert_id", alert.ID),
			zap.Error(err),
		)
		return true
	}

	d.logger.Info("alert notification sent",
		zap.Uint("alert_id", alert.ID),
		zap.Int64("user_id", alert.UserID),
		zap.String("cryptocurrency", alert.Cryptocurrency),
	)
	return true
}

func formatAlertMessage(alert domain.PriceAlert, price decimal.Decimal) string {
	direction := "above"
	if !alert.IsAbove {
		direction = "below"
	}
	return fmt.Sprintf(
		"🔔 Price alert!\n\nCryptocurrency: %s\nCurrent price: $%s\nTarget price: $%s\nThe price reached a value %s your target!",
		alert.Cryptocurrency,
		price.StringFixed(2),
		alert.TargetPrice.StringFixed(2),
		direction,
	)
}
