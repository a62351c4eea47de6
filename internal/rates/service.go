package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/config"
	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
)

// inversePrecision is the fractional digit count used when reciprocating a
// stored rate, enough to keep round trips within rounding tolerance.
const inversePrecision = 6

var one = decimal.NewFromInt(1)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Resolution is the outcome of a rate lookup. Converted is false when no rate
// was configured for the pair and the identity fallback was applied, so
// callers can tell a real 1:1 rate apart from an unconvertible pair.
type Resolution struct {
	Rate      decimal.Decimal `json:"rate"`
	Converted bool            `json:"converted"`
}

// UpsertInput carries an admin rate edit.
type UpsertInput struct {
	Origin      enums.Currency
	Destination enums.Currency
	Rate        decimal.Decimal
	Notes       string
	EditorID    uuid.UUID
}

// Service resolves conversion rates and manages the stored rate table.
type Service interface {
	Resolve(ctx context.Context, origin, destination enums.Currency) (Resolution, error)
	Convert(ctx context.Context, amount decimal.Decimal, origin, destination enums.Currency) (decimal.Decimal, Resolution, error)
	List(ctx context.Context) ([]models.ExchangeRate, error)
	Upsert(ctx context.Context, input UpsertInput) (*models.ExchangeRate, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.ExchangeRate, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	principal enums.Currency
	logg      *logger.Logger
}

// NewService builds a rates service with the required dependencies.
func NewService(repo Repository, tx txRunner, currency config.CurrencyConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rates repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	principal, err := enums.ParseCurrency(currency.Principal)
	if err != nil {
		return nil, fmt.Errorf("invalid principal currency: %w", err)
	}
	return &service{
		repo:      repo,
		tx:        tx,
		principal: principal,
		logg:      logg,
	}, nil
}

func (s *service) Resolve(ctx context.Context, origin, destination enums.Currency) (Resolution, error) {
	if origin == destination {
		return Resolution{Rate: one, Converted: true}, nil
	}

	direct, err := s.repo.FindActivePair(ctx, origin, destination)
	if err == nil {
		return Resolution{Rate: direct.Rate, Converted: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup direct rate")
	}

	inverse, err := s.repo.FindActivePair(ctx, destination, origin)
	if err == nil {
		if inverse.Rate.IsZero() {
			return Resolution{Rate: one, Converted: false}, nil
		}
		return Resolution{Rate: one.DivRound(inverse.Rate, inversePrecision), Converted: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup inverse rate")
	}

	// No configured pair: identity fallback, flagged as unconverted.
	return Resolution{Rate: one, Converted: false}, nil
}

func (s *service) Convert(ctx context.Context, amount decimal.Decimal, origin, destination enums.Currency) (decimal.Decimal, Resolution, error) {
	if origin == destination {
		return amount, Resolution{Rate: one, Converted: true}, nil
	}
	res, err := s.Resolve(ctx, origin, destination)
	if err != nil {
		return decimal.Zero, Resolution{}, err
	}
	return amount.Mul(res.Rate), res, nil
}

func (s *service) List(ctx context.Context) ([]models.ExchangeRate, error) {
	rates, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rates")
	}
	return rates, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (*models.ExchangeRate, error) {
	if !input.Origin.IsValid() || !input.Destination.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency pair")
	}
	if input.Origin == input.Destination {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination must differ")
	}
	if !input.Rate.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate must be positive")
	}

	var saved *models.ExchangeRate
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		primary, err := s.savePair(ctx, repo, input.Origin, input.Destination, input.Rate, input.Notes, input.EditorID)
		if err != nil {
			return err
		}
		saved = primary

		// Rates anchored on the principal currency keep their reciprocal in
		// sync so either direction resolves without inversion at read time.
		if input.Origin == s.principal || input.Destination == s.principal {
			reciprocal := one.DivRound(input.Rate, inversePrecision)
			if _, err := s.savePair(ctx, repo, input.Destination, input.Origin, reciprocal, input.Notes, input.EditorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) savePair(ctx context.Context, repo Repository, origin, destination enums.Currency, rate decimal.Decimal, notes string, editorID uuid.UUID) (*models.ExchangeRate, error) {
	existing, err := repo.FindPair(ctx, origin, destination)
	switch {
	case err == nil:
		existing.Rate = rate
		existing.IsActive = true
		existing.Notes = notes
		existing.UpdatedByID = editorPtr(editorID)
		if err := repo.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rate")
		}
		return existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		created := &models.ExchangeRate{
			Origin:      origin,
			Destination: destination,
			Rate:        rate,
			IsActive:    true,
			Notes:       notes,
			UpdatedByID: editorPtr(editorID),
		}
		if err := repo.Create(ctx, created); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rate")
		}
		return created, nil

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find rate pair")
	}
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.ExchangeRate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate id required")
	}
	rate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rate")
	}
	if rate.IsActive == active {
		return rate, nil
	}
	rate.IsActive = active
	if err := s.repo.Update(ctx, rate); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rate")
	}
	return rate, nil
}

func editorPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
