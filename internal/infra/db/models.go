package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type userModel struct {
	TgID             int64     `gorm:"column:tg_id;primaryKey"`
	Username         string    `gorm:""`
	RegistrationDate time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

type priceAlertModel struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         int64           `gorm:"not null;index"`
	Cryptocurrency string          `gorm:"not null;index:idx_price_alerts_symbol_active,priority:1"`
	TargetPrice    decimal.Decimal `gorm:"type:numeric;not null"`
	IsAbove        bool            `gorm:"not null"`
	CreatedAt      time.Time
	IsActive       bool `gorm:"not null;index:idx_price_alerts_symbol_active,priority:2"`
}

func (priceAlertModel) TableName() string { return "price_alerts" }
