package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sanbenito/ferreteria-backend/api/middleware"
	"github.com/sanbenito/ferreteria-backend/api/responses"
	"github.com/sanbenito/ferreteria-backend/api/validators"
	orderssvc "github.com/sanbenito/ferreteria-backend/internal/orders"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/pagination"
)

type orderListResponse struct {
	Orders     []orderView     `json:"orders"`
	Pagination pagination.Page `json:"pagination"`
}

// OrderList serves the buyer's own orders, newest first.
func OrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		orders, page, err := svc.ListForUser(r.Context(), userID, pagination.FromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderListResponse{Orders: renderOrders(orders, false), Pagination: *page})
	}
}

// OrderDetail serves one of the buyer's orders by number. Orders belonging to
// someone else answer not found.
func OrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		order, err := svc.GetForUser(r.Context(), userID, chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderOrder(order, false))
	}
}

type paymentProofRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// OrderSubmitPaymentProof records the buyer's payment reference and moves the
// payment to verifying.
func OrderSubmitPaymentProof(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())

		var payload paymentProofRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SubmitPaymentProof(r.Context(), userID, chi.URLParam(r, "orderNumber"), payload.Reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderOrder(order, false))
	}
}
