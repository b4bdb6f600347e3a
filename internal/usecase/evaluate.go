package usecase

import (
	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// Triggered reports whether the tick price satisfies the alert condition.
// Boundaries are inclusive: a price exactly equal to the target fires the
// alert in both directions. Pure and safe for concurrent use.
func Triggered(alert domain.PriceAlert, price decimal.Decimal) bool {
	cmp := price.Cmp(alert.TargetPrice)
	if alert.IsAbove {
		return cmp >= 0
	}
	return cmp <= 0
}
