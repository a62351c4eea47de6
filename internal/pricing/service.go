package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sanbenito/ferreteria-backend/internal/rates"
	"github.com/sanbenito/ferreteria-backend/pkg/config"
	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/types"
)

type rateResolver interface {
	Resolve(ctx context.Context, origin, destination enums.Currency) (rates.Resolution, error)
}

// Service renders product prices into the configured display currencies.
type Service interface {
	PriceIn(ctx context.Context, product *models.Product, code enums.Currency) (decimal.Decimal, rates.Resolution, error)
	DisplayPrices(ctx context.Context, product *models.Product) (types.DisplayPrices, error)
	Format(amount decimal.Decimal, code enums.Currency) string
}

type service struct {
	resolver rateResolver
	currency config.CurrencyConfig
}

// NewService builds a pricing service over the rate resolver.
func NewService(resolver rateResolver, currency config.CurrencyConfig) (Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("rate resolver required")
	}
	return &service{resolver: resolver, currency: currency}, nil
}

func (s *service) PriceIn(ctx context.Context, product *models.Product, code enums.Currency) (decimal.Decimal, rates.Resolution, error) {
	base, origin := basePrice(product)
	if origin == code {
		return base, rates.Resolution{Rate: decimal.NewFromInt(1), Converted: true}, nil
	}
	res, err := s.resolver.Resolve(ctx, origin, code)
	if err != nil {
		return decimal.Zero, rates.Resolution{}, err
	}
	return base.Mul(res.Rate), res, nil
}

func (s *service) DisplayPrices(ctx context.Context, product *models.Product) (types.DisplayPrices, error) {
	out := make(types.DisplayPrices, len(s.currency.Display))
	for _, raw := range s.currency.Display {
		code, err := enums.ParseCurrency(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "configured display currency invalid")
		}
		amount, res, err := s.PriceIn(ctx, product, code)
		if err != nil {
			return nil, err
		}
		rounded := amount.Round(int32(s.currency.Precision))
		out[raw] = types.DisplayPrice{
			Amount:    rounded,
			Symbol:    s.currency.Symbol(raw),
			Formatted: s.Format(rounded, code),
			Converted: res.Converted,
		}
	}
	return out, nil
}

// Format renders an amount with the configured precision, comma grouping, and
// currency symbol. Zero-valued amounts still produce a well-formed string.
func (s *service) Format(amount decimal.Decimal, code enums.Currency) string {
	return s.currency.Symbol(code.String()) + groupThousands(amount.StringFixed(int32(s.currency.Precision)))
}

func basePrice(product *models.Product) (decimal.Decimal, enums.Currency) {
	if product == nil {
		return decimal.Zero, enums.CurrencyUSD
	}
	origin := product.PriceCurrency
	if !origin.IsValid() {
		origin = enums.CurrencyUSD
	}
	return product.Price, origin
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart := fixed
	fracPart := ""
	if idx := strings.IndexByte(fixed, '.'); idx >= 0 {
		intPart, fracPart = fixed[:idx], fixed[idx:]
	}

	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}
