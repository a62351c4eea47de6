package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanbenito/ferreteria-backend/api/middleware"
	"github.com/sanbenito/ferreteria-backend/api/responses"
	"github.com/sanbenito/ferreteria-backend/api/validators"
	ratessvc "github.com/sanbenito/ferreteria-backend/internal/rates"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
)

// AdminRateList serves the full stored rate table, inactive rows included.
func AdminRateList(svc ratessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rates, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]rateView, 0, len(rates))
		for i := range rates {
			views = append(views, renderRate(&rates[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

type upsertRateRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	Rate        string `json:"rate" validate:"required"`
	Notes       string `json:"notes"`
}

// AdminRateUpsert creates or updates a currency pair. Rates travel as strings
// so client float formatting never corrupts them.
func AdminRateUpsert(svc ratessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertRateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		origin, err := enums.ParseCurrency(strings.TrimSpace(payload.Origin))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid origin currency"))
			return
		}
		destination, err := enums.ParseCurrency(strings.TrimSpace(payload.Destination))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid destination currency"))
			return
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(payload.Rate))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate"))
			return
		}

		saved, err := svc.Upsert(r.Context(), ratessvc.UpsertInput{
			Origin:      origin,
			Destination: destination,
			Rate:        rate,
			Notes:       payload.Notes,
			EditorID:    middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderRate(saved))
	}
}

// AdminRateActivate re-enables a stored pair.
func AdminRateActivate(svc ratessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setRateActive(svc, logg, true)
}

// AdminRateDeactivate disables a stored pair without deleting it, so lookups
// fall back to the identity rate.
func AdminRateDeactivate(svc ratessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setRateActive(svc, logg, false)
}

func setRateActive(svc ratessvc.Service, logg *logger.Logger, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rateID, err := uuid.Parse(chi.URLParam(r, "rateID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate id"))
			return
		}

		rate, err := svc.SetActive(r.Context(), rateID, active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderRate(rate))
	}
}
