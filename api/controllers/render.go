package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/types"
)

// The API never serializes gorm models directly; these views pin the wire
// shape and keep credentials out of responses.

type userView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func renderUser(u *models.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Address:   u.Address,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

type categoryView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	SortOrder   int       `json:"sort_order"`
}

func renderCategory(c models.Category) categoryView {
	return categoryView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Slug:        c.Slug,
		SortOrder:   c.SortOrder,
	}
}

type productView struct {
	ID            uuid.UUID           `json:"id"`
	CategoryID    uuid.UUID           `json:"category_id"`
	Category      *categoryView       `json:"category,omitempty"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Slug          string              `json:"slug"`
	Price         decimal.Decimal     `json:"price"`
	PriceCurrency string              `json:"price_currency"`
	DisplayPrices types.DisplayPrices `json:"display_prices,omitempty"`
	Stock         int                 `json:"stock"`
	ImageURL      string              `json:"image_url"`
	IsActive      bool                `json:"is_active"`
	IsFeatured    bool                `json:"is_featured"`
}

func renderProduct(p *models.Product, prices types.DisplayPrices) productView {
	view := productView{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Description:   p.Description,
		Slug:          p.Slug,
		Price:         p.Price,
		PriceCurrency: p.PriceCurrency.String(),
		DisplayPrices: prices,
		Stock:         p.Stock,
		ImageURL:      p.ImageURL,
		IsActive:      p.IsActive,
		IsFeatured:    p.IsFeatured,
	}
	if p.Category != nil {
		category := renderCategory(*p.Category)
		view.Category = &category
	}
	return view
}

type orderLineView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type orderView struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	Total           decimal.Decimal `json:"total"`
	DeliveryAddress string          `json:"delivery_address"`
	ContactPhone    string          `json:"contact_phone"`
	PaymentNote     string          `json:"payment_note,omitempty"`
	AdminNote       string          `json:"admin_note,omitempty"`
	PaymentProof    *string         `json:"payment_proof,omitempty"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty"`
	Buyer           *userView       `json:"buyer,omitempty"`
	Items           []orderLineView `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

func renderOrder(o *models.Order, includeBuyer bool) orderView {
	items := make([]orderLineView, 0, len(o.Items))
	for _, item := range o.Items {
		line := orderLineView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		items = append(items, line)
	}

	view := orderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status.String(),
		PaymentStatus:   o.PaymentStatus.String(),
		PaymentMethod:   o.PaymentMethod.String(),
		Total:           o.Total,
		DeliveryAddress: o.DeliveryAddress,
		ContactPhone:    o.ContactPhone,
		PaymentNote:     o.PaymentNote,
		AdminNote:       o.AdminNote,
		PaymentProof:    o.PaymentProofURL,
		VerifiedAt:      o.VerifiedAt,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
	if includeBuyer && o.User != nil {
		buyer := renderUser(o.User)
		view.Buyer = &buyer
	}
	return view
}

func renderOrders(list []models.Order, includeBuyer bool) []orderView {
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, renderOrder(&list[i], includeBuyer))
	}
	return out
}

type rateView struct {
	ID          uuid.UUID       `json:"id"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Rate        decimal.Decimal `json:"rate"`
	IsActive    bool            `json:"is_active"`
	Notes       string          `json:"notes,omitempty"`
	UpdatedByID *uuid.UUID      `json:"updated_by_id,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func renderRate(r *models.ExchangeRate) rateView {
	return rateView{
		ID:          r.ID,
		Origin:      r.Origin.String(),
		Destination: r.Destination.String(),
		Rate:        r.Rate,
		IsActive:    r.IsActive,
		Notes:       r.Notes,
		UpdatedByID: r.UpdatedByID,
		UpdatedAt:   r.UpdatedAt,
	}
}
