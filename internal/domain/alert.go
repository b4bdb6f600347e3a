package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceAlert is a one-shot threshold watch on a single cryptocurrency.
// When IsAbove is true the alert fires once the price reaches or exceeds
// TargetPrice, otherwise once it reaches or falls below it. A fired alert
// is deactivated, never deleted.
type PriceAlert struct {
	ID             uint
	UserID         int64
	Cryptocurrency string
	TargetPrice    decimal.Decimal
	IsAbove        bool
	CreatedAt      time.Time
	IsActive       bool
}
