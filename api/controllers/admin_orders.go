package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sanbenito/ferreteria-backend/api/middleware"
	"github.com/sanbenito/ferreteria-backend/api/responses"
	"github.com/sanbenito/ferreteria-backend/api/validators"
	orderssvc "github.com/sanbenito/ferreteria-backend/internal/orders"
	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/pagination"
)

// AdminOrderList serves all orders, filterable by payment and fulfillment
// status.
func AdminOrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := orderssvc.ListFilters{
			PaymentStatus: enums.PaymentStatus(strings.TrimSpace(r.URL.Query().Get("payment_status"))),
			Status:        enums.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		}

		orders, page, err := svc.List(r.Context(), filters, pagination.FromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderListResponse{Orders: renderOrders(orders, true), Pagination: *page})
	}
}

// AdminOrderDetail serves one order by id with the buyer attached.
func AdminOrderDetail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderOrder(order, true))
	}
}

type paymentDecisionRequest struct {
	Note string `json:"note"`
}

// AdminApprovePayment settles the payment as paid and starts fulfillment on
// still-pending orders.
func AdminApprovePayment(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return decidePayment(logg, svc.ApprovePayment)
}

// AdminRejectPayment settles the payment as rejected, leaving fulfillment
// where it is.
func AdminRejectPayment(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return decidePayment(logg, svc.RejectPayment)
}

func decidePayment(logg *logger.Logger, decide func(ctx context.Context, adminID, orderID uuid.UUID, note string) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload paymentDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adminID := middleware.UserIDFromContext(r.Context())
		order, err := decide(r.Context(), adminID, orderID, payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderOrder(order, true))
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminUpdateOrderStatus advances the fulfillment state machine.
func AdminUpdateOrderStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateFulfillment(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderOrder(order, true))
	}
}
