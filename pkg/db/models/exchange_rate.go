package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/enums"
)

// ExchangeRate stores one ordered currency pair: 1 origin = Rate destination.
// Pairs are unique; the inverse direction is a separate row.
type ExchangeRate struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Origin      enums.Currency  `gorm:"column:origin;type:text;not null;uniqueIndex:idx_exchange_rates_pair"`
	Destination enums.Currency  `gorm:"column:destination;type:text;not null;uniqueIndex:idx_exchange_rates_pair"`
	Rate        decimal.Decimal `gorm:"column:rate;type:numeric(15,6);not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	Notes       string          `gorm:"column:notes"`
	UpdatedByID *uuid.UUID      `gorm:"column:updated_by_id;type:uuid"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *ExchangeRate) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
