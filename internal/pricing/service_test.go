package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sanbenito/ferreteria-backend/internal/rates"
	"github.com/sanbenito/ferreteria-backend/pkg/config"
	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
)

type stubResolver struct {
	table map[string]rates.Resolution
}

func (s stubResolver) Resolve(_ context.Context, origin, destination enums.Currency) (rates.Resolution, error) {
	if origin == destination {
		return rates.Resolution{Rate: decimal.NewFromInt(1), Converted: true}, nil
	}
	if res, ok := s.table[string(origin)+":"+string(destination)]; ok {
		return res, nil
	}
	return rates.Resolution{Rate: decimal.NewFromInt(1), Converted: false}, nil
}

func testCurrencyConfig() config.CurrencyConfig {
	return config.CurrencyConfig{
		Principal: "USD",
		Display:   []string{"USD", "VES", "COP", "EUR"},
		Precision: 2,
		Symbols:   map[string]string{"USD": "$", "VES": "Bs", "COP": "$", "EUR": "€"},
	}
}

func newTestService(t *testing.T, table map[string]rates.Resolution) Service {
	t.Helper()

	svc, err := NewService(stubResolver{table: table}, testCurrencyConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPriceInConverts(t *testing.T) {
	svc := newTestService(t, map[string]rates.Resolution{
		"USD:VES": {Rate: decimal.RequireFromString("40"), Converted: true},
	})
	product := &models.Product{
		Price:         decimal.RequireFromString("12.50"),
		PriceCurrency: enums.CurrencyUSD,
	}

	amount, res, err := svc.PriceIn(context.Background(), product, enums.CurrencyVES)
	if err != nil {
		t.Fatalf("price in: %v", err)
	}
	if !amount.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("expected 500, got %s", amount)
	}
	if !res.Converted {
		t.Fatal("expected converted result")
	}
}

func TestPriceInBaseCurrencyIdentity(t *testing.T) {
	svc := newTestService(t, nil)
	product := &models.Product{
		Price:         decimal.RequireFromString("7.99"),
		PriceCurrency: enums.CurrencyUSD,
	}

	amount, res, err := svc.PriceIn(context.Background(), product, enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("price in: %v", err)
	}
	if !amount.Equal(product.Price) {
		t.Fatalf("base-currency price changed: %s", amount)
	}
	if !res.Converted {
		t.Fatal("base-currency lookup should be converted")
	}
}

func TestDisplayPricesCoverAllConfiguredCurrencies(t *testing.T) {
	svc := newTestService(t, map[string]rates.Resolution{
		"USD:VES": {Rate: decimal.RequireFromString("40"), Converted: true},
		"USD:COP": {Rate: decimal.RequireFromString("4000"), Converted: true},
	})
	product := &models.Product{
		Price:         decimal.RequireFromString("10.00"),
		PriceCurrency: enums.CurrencyUSD,
	}

	prices, err := svc.DisplayPrices(context.Background(), product)
	if err != nil {
		t.Fatalf("display prices: %v", err)
	}
	if len(prices) != 4 {
		t.Fatalf("expected 4 display prices, got %d", len(prices))
	}

	if got := prices["VES"].Formatted; got != "Bs400.00" {
		t.Fatalf("unexpected VES formatting %q", got)
	}
	if got := prices["COP"].Formatted; got != "$40,000.00" {
		t.Fatalf("expected comma grouping, got %q", got)
	}
	if !prices["USD"].Converted {
		t.Fatal("base currency entry should be converted")
	}
	// No EUR rate configured: identity amount flagged unconverted.
	if prices["EUR"].Converted {
		t.Fatal("EUR fallback should be unconverted")
	}
	if !prices["EUR"].Amount.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("EUR fallback amount changed: %s", prices["EUR"].Amount)
	}
}

func TestDisplayPricesZeroPrice(t *testing.T) {
	svc := newTestService(t, nil)

	prices, err := svc.DisplayPrices(context.Background(), &models.Product{PriceCurrency: enums.CurrencyUSD})
	if err != nil {
		t.Fatalf("display prices: %v", err)
	}
	if got := prices["USD"].Formatted; got != "$0.00" {
		t.Fatalf("zero price should format cleanly, got %q", got)
	}

	prices, err = svc.DisplayPrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("display prices for nil product: %v", err)
	}
	if got := prices["USD"].Formatted; got != "$0.00" {
		t.Fatalf("nil product should format as zero, got %q", got)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[string]string{
		"0.00":       "0.00",
		"999.99":     "999.99",
		"1000.00":    "1,000.00",
		"1234567.89": "1,234,567.89",
		"-45000.10":  "-45,000.10",
		"12345":      "12,345",
		"-321":       "-321",
	}
	for in, want := range cases {
		if got := groupThousands(in); got != want {
			t.Fatalf("groupThousands(%q) = %q, want %q", in, got, want)
		}
	}
}
