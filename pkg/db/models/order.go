package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/enums"
)

// Order is the immutable result of a checkout. Line items carry unit prices
// frozen at creation time; Total always equals the sum of line subtotals.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	User            *User               `gorm:"foreignKey:UserID"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	DeliveryAddress string              `gorm:"column:delivery_address;not null"`
	ContactPhone    string              `gorm:"column:contact_phone;not null"`
	PaymentNote     string              `gorm:"column:payment_note"`
	AdminNote       string              `gorm:"column:admin_note"`
	PaymentProofURL *string             `gorm:"column:payment_proof_url"`
	VerifiedByID    *uuid.UUID          `gorm:"column:verified_by_id;type:uuid"`
	VerifiedAt      *time.Time          `gorm:"column:verified_at"`
	Items           []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RecalculateTotal sets Total to the sum of the loaded line-item subtotals.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.Total = total
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
