package types

import "github.com/shopspring/decimal"

// DisplayPrice is one currency's rendering of a product price.
type DisplayPrice struct {
	Amount    decimal.Decimal `json:"amount"`
	Symbol    string          `json:"symbol"`
	Formatted string          `json:"formatted"`
	// Converted is false when no rate was configured for the pair and the
	// amount fell back to the base value unchanged.
	Converted bool `json:"converted"`
}

// DisplayPrices maps currency code to its rendering.
type DisplayPrices map[string]DisplayPrice
