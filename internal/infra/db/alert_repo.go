package db

import (
	"context"
	"errors"
	"strings"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.PriceAlert) error {
	model := mapAlertToModel(*alert)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, alertID uint) (*domain.PriceAlert, error) {
	var model priceAlertModel
	if err := r.db.WithContext(ctx).First(&model, alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	alert := mapAlertToDomain(model)
	return &alert, nil
}

func (r *AlertRepository) ListActiveByUser(ctx context.Context, userID int64) ([]domain.PriceAlert, error) {
	var models []priceAlertModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) ListActive(ctx context.Context) ([]domain.PriceAlert, error) {
	var models []priceAlertModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) ListActiveBySymbol(ctx context.Context, symbol string) ([]domain.PriceAlert, error) {
	var models []priceAlertModel
	if err := r.db.WithContext(ctx).
		Where("cryptocurrency = ? AND is_active = ?", strings.ToUpper(symbol), true).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) Update(ctx context.Context, alertID uint, update domain.AlertUpdate) error {
	fields := map[string]interface{}{}
	if update.Cryptocurrency != nil {
		fields["cryptocurrency"] = strings.ToUpper(*update.Cryptocurrency)
	}
	if update.TargetPrice != nil {
		fields["target_price"] = *update.TargetPrice
	}
	if update.IsAbove != nil {
		fields["is_above"] = *update.IsAbove
	}
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&priceAlertModel{}).Where("id = ?", alertID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepository) Deactivate(ctx context.Context, alertID uint) error {
	result := r.db.WithContext(ctx).Model(&priceAlertModel{}).Where("id = ?", alertID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapAlertsToDomain(models []priceAlertModel) []domain.PriceAlert {
	alerts := make([]domain.PriceAlert, 0, len(models))
	for _, model := range models {
		alerts = append(alerts, mapAlertToDomain(model))
	}
	return alerts
}

func mapAlertToDomain(model priceAlertModel) domain.PriceAlert {
	return domain.PriceAlert{
		ID:             model.ID,
		UserID:         model.UserID,
		Cryptocurrency: model.Cryptocurrency,
		TargetPrice:    model.TargetPrice,
		IsAbove:        model.IsAbove,
		CreatedAt:      model.CreatedAt,
		IsActive:       model.IsActive,
	}
}

func mapAlertToModel(alert domain.PriceAlert) priceAlertModel {
	return priceAlertModel{
		ID:             alert.ID,
		UserID:         alert.UserID,
		Cryptocurrency: strings.ToUpper(alert.Cryptocurrency),
		TargetPrice:    alert.TargetPrice,
		IsAbove:        alert.IsAbove,
		CreatedAt:      alert.CreatedAt,
		IsActive:       alert.IsActive,
	}
}

var _ domain.AlertRepository = (*AlertRepository)(nil)
