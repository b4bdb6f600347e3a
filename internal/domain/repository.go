package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetByTgID(ctx context.Context, tgID int64) (*User, error)
	// CreateIfAbsent registers the user, keeping the existing row when the
	// Telegram id is already known.
	CreateIfAbsent(ctx context.Context, user *User) error
}

// AlertUpdate carries the mutable alert fields; nil means leave unchanged.
type AlertUpdate struct {
	Cryptocurrency *string
	TargetPrice    *decimal.Decimal
	IsAbove        *bool
}

type AlertRepository interface {
	Create(ctx context.Context, alert *PriceAlert) error
	GetByID(ctx context.Context, alertID uint) (*PriceAlert, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]PriceAlert, error)
	ListActive(ctx context.Context) ([]PriceAlert, error)
	ListActiveBySymbol(ctx context.Context, symbol string) ([]PriceAlert, error)
	Update(ctx context.Context, alertID uint, update AlertUpdate) error
	// Deactivate soft-deletes the alert by clearing is_active.
	Deactivate(ctx context.Context, alertID uint) error
}
