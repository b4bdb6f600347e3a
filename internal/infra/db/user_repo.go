package db

import (
	"context"
	"errors"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	var model userModel
	if err := r.db.WithContext(ctx).Where("tg_id = ?", tgID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapUserToDomain(model), nil
}

func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *domain.User) error {
	model := userModel{
		TgID:             user.TgID,
		Username:         user.Username,
		RegistrationDate: user.RegistrationDate,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tg_id"}}, DoNothing: true}).
		Create(&model).Error
}

func mapUserToDomain(model userModel) *domain.User {
	return &domain.User{
		TgID:             model.TgID,
		Username:         model.Username,
		RegistrationDate: model.RegistrationDate,
	}
}

var _ domain.UserRepository = (*UserRepository)(nil)
