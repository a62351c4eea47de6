package controllers

import (
	"net/http"

	"github.com/sanbenito/ferreteria-backend/api/middleware"
	"github.com/sanbenito/ferreteria-backend/api/responses"
	"github.com/sanbenito/ferreteria-backend/api/validators"
	cartsvc "github.com/sanbenito/ferreteria-backend/internal/cart"
	"github.com/sanbenito/ferreteria-backend/pkg/config"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
)

type currencyResponse struct {
	Currency  string   `json:"currency"`
	Symbol    string   `json:"symbol"`
	Available []string `json:"available"`
}

// CurrencyShow returns the session's selected display currency.
func CurrencyShow(svc cartsvc.Service, currency config.CurrencyConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		selected, err := svc.SelectedCurrency(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, currencyResponse{
			Currency:  selected.String(),
			Symbol:    currency.Symbol(selected.String()),
			Available: currency.Display,
		})
	}
}

type selectCurrencyRequest struct {
	Currency string `json:"currency" validate:"required"`
}

// CurrencySelect pins the session's display currency.
func CurrencySelect(svc cartsvc.Service, currency config.CurrencyConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload selectCurrencyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := svc.SelectCurrency(r.Context(), sessionID, payload.Currency); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selected, err := svc.SelectedCurrency(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, currencyResponse{
			Currency:  selected.String(),
			Symbol:    currency.Symbol(selected.String()),
			Available: currency.Display,
		})
	}
}
