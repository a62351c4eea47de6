package rates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
)

// Repository exposes exchange rate persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActivePair(ctx context.Context, origin, destination enums.Currency) (*models.ExchangeRate, error)
	FindPair(ctx context.Context, origin, destination enums.Currency) (*models.ExchangeRate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ExchangeRate, error)
	List(ctx context.Context) ([]models.ExchangeRate, error)
	Create(ctx context.Context, rate *models.ExchangeRate) error
	Update(ctx context.Context, rate *models.ExchangeRate) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rates repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActivePair(ctx context.Context, origin, destination enums.Currency) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("origin = ? AND destination = ? AND is_active = ?", origin, destination, true).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) FindPair(ctx context.Context, origin, destination enums.Currency) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("origin = ? AND destination = ?", origin, destination).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) List(ctx context.Context) ([]models.ExchangeRate, error) {
	var rates []models.ExchangeRate
	err := r.db.WithContext(ctx).
		Order("origin ASC, destination ASC").
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repository) Create(ctx context.Context, rate *models.ExchangeRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *repository) Update(ctx context.Context, rate *models.ExchangeRate) error {
	return r.db.WithContext(ctx).Save(rate).Error
}
