package controllers

import (
	"errors"
	"net/http"

	"github.com/sanbenito/ferreteria-backend/api/middleware"
	"github.com/sanbenito/ferreteria-backend/api/responses"
	"github.com/sanbenito/ferreteria-backend/api/validators"
	checkoutsvc "github.com/sanbenito/ferreteria-backend/internal/checkout"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
)

// Checkout converts the cart into an order. An empty cart is not an error from
// the buyer's point of view, so it answers with a notice instead of a 4xx.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutsvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), middleware.CartIdentityFromContext(r.Context()), payload)
		if err != nil {
			if errors.Is(err, checkoutsvc.ErrEmptyCart) {
				responses.WriteNotice(w, "empty_cart", "your cart is empty")
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, renderOrder(order, false))
	}
}
