package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedCryptocurrency = errors.New("unsupported cryptocurrency")
	ErrInvalidTargetPrice        = errors.New("target price must be positive")
	ErrAlertNotFound             = errors.New("alert not found")
	ErrAlertAccessDenied         = errors.New("alert belongs to another user")
)

// AlertUsecase validates and executes alert CRUD on behalf of the bot and the
// HTTP API. Deletion is a soft delete: alerts are deactivated, never removed.
type AlertUsecase struct {
	alerts    domain.AlertRepository
	supported []string
}

func NewAlertUsecase(alerts domain.AlertRepository, supported []string) *AlertUsecase {
	normalized := make([]string, 0, len(supported))
	for _, symbol := range supported {
		normalized = append(normalized, strings.ToUpper(strings.TrimSpace(symbol)))
	}
	return &AlertUsecase{alerts: alerts, supported: normalized}
}

func (u *AlertUsecase) CreateAlert(ctx context.Context, userID int64, cryptocurrency string, targetPrice decimal.Decimal, isAbove bool) (*domain.PriceAlert, error) {
	symbol, err := u.normalizeSymbol(cryptocurrency)
	if err != nil {
		return nil, err
	}
	if !targetPrice.IsPositive() {
		return nil, ErrInvalidTargetPrice
	}

	alert := &domain.PriceAlert{
		UserID:         userID,
		Cryptocurrency: symbol,
		TargetPrice:    targetPrice,
		IsAbove:        isAbove,
		CreatedAt:      time.Now(),
		IsActive:       true,
	}
	if err := u.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (u *AlertUsecase) ListAlerts(ctx context.Context, userID int64) ([]domain.PriceAlert, error) {
	return u.alerts.ListActiveByUser(ctx, userID)
}

func (u *AlertUsecase) UpdateAlert(ctx context.Context, userID int64, alertID uint, update domain.AlertUpdate) (*domain.PriceAlert, error) {
	if _, err := u.ownedAlert(ctx, userID, alertID); err != nil {
		return nil, err
	}

	if update.Cryptocurrency != nil {
		symbol, err := u.normalizeSymbol(*update.Cryptocurrency)
		if err != nil {
			return nil, err
		}
		update.Cryptocurrency = &symbol
	}
	if update.TargetPrice != nil && !update.TargetPrice.IsPositive() {
		return nil, ErrInvalidTargetPrice
	}

	if err := u.alerts.Update(ctx, alertID, update); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return u.alerts.GetByID(ctx, alertID)
}

func (u *AlertUsecase) DeleteAlert(ctx context.Context, userID int64, alertID uint) error {
	if _, err := u.ownedAlert(ctx, userID, alertID); err != nil {
		return err
	}
	if err := u.alerts.Deactivate(ctx, alertID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func (u *AlertUsecase) SupportedCryptocurrencies() []string {
	out := make([]string, len(u.supported))
	copy(out, u.supported)
	return out
}

func (u *AlertUsecase) ownedAlert(ctx context.Context, userID int64, alertID uint) (*domain.PriceAlert, error) {
	alert, err := u.alerts.GetByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	if alert.UserID != userID {
		return nil, ErrAlertAccessDenied
	}
	return alert, nil
}

func (u *AlertUsecase) normalizeSymbol(input string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input))
	for _, supported := range u.supported {
		if supported == symbol {
			return symbol, nil
		}
	}
	return "", ErrUnsupportedCryptocurrency
}
