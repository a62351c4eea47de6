package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/enums"
)

// Product is a catalog listing priced in its base currency.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	Category      *Category       `gorm:"foreignKey:CategoryID"`
	Name          string          `gorm:"column:name;not null"`
	Description   string          `gorm:"column:description"`
	Slug          string          `gorm:"column:slug;not null;uniqueIndex"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	PriceCurrency enums.Currency  `gorm:"column:price_currency;type:text;not null;default:'USD'"`
	Stock         int             `gorm:"column:stock;not null;default:0"`
	StockAlert    int             `gorm:"column:stock_alert;not null;default:5"`
	ImageURL      string          `gorm:"column:image_url"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	IsFeatured    bool            `gorm:"column:is_featured;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Available reports whether the product can be sold right now.
func (p Product) Available() bool {
	return p.IsActive && p.Stock > 0
}

// LowStock reports whether the stock fell to the alert threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.StockAlert
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
