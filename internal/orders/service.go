package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/pagination"
)

// Service owns the order lifecycle after checkout: buyer lookups, payment
// verification, and fulfillment transitions.
type Service interface {
	GetForUser(ctx context.Context, userID uuid.UUID, number string) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Page, error)
	SubmitPaymentProof(ctx context.Context, userID uuid.UUID, number, reference string) (*models.Order, error)

	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, *pagination.Page, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ApprovePayment(ctx context.Context, adminID, orderID uuid.UUID, note string) (*models.Order, error)
	RejectPayment(ctx context.Context, adminID, orderID uuid.UUID, note string) (*models.Order, error)
	UpdateFulfillment(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) GetForUser(ctx context.Context, userID uuid.UUID, number string) (*models.Order, error) {
	order, err := s.findByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	// Ownership failures look identical to missing orders.
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Page, error) {
	if userID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	results, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Build(params, total)
	return results, &page, nil
}

// SubmitPaymentProof records the buyer's payment reference and moves the
// payment to verifying. Resubmitting while still verifying replaces the
// reference; a settled payment cannot be amended.
func (s *service) SubmitPaymentProof(ctx context.Context, userID uuid.UUID, number, reference string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	order, err := s.GetForUser(ctx, userID, number)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has already been settled")
	}

	order.PaymentProofURL = &reference
	order.PaymentStatus = enums.PaymentStatusVerifying
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment proof")
	}

	s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "payment proof submitted")
	return order, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, *pagination.Page, error) {
	if filters.PaymentStatus != "" && !filters.PaymentStatus.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
	}
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
	}
	results, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Build(params, total)
	return results, &page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// ApprovePayment marks the payment as paid and, when the order is still
// pending, starts fulfillment by moving it to processing.
func (s *service) ApprovePayment(ctx context.Context, adminID, orderID uuid.UUID, note string) (*models.Order, error) {
	return s.verifyPayment(ctx, adminID, orderID, note, enums.PaymentStatusPaid)
}

// RejectPayment marks the payment as rejected. Fulfillment is left alone so
// the order keeps whatever state it reached.
func (s *service) RejectPayment(ctx context.Context, adminID, orderID uuid.UUID, note string) (*models.Order, error) {
	return s.verifyPayment(ctx, adminID, orderID, note, enums.PaymentStatusRejected)
}

func (s *service) verifyPayment(ctx context.Context, adminID, orderID uuid.UUID, note string, decision enums.PaymentStatus) (*models.Order, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if found.PaymentStatus.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment has already been settled")
		}

		now := time.Now().UTC()
		found.PaymentStatus = decision
		found.VerifiedByID = &adminID
		found.VerifiedAt = &now
		if note != "" {
			found.AdminNote = note
		}
		if decision == enums.PaymentStatusPaid && found.Status == enums.OrderStatusPending {
			found.Status = enums.OrderStatusProcessing
		}

		if err := repo.Update(ctx, found); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment decision")
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"decision":     decision.String(),
	})
	s.logg.Info(fields, "payment verified")
	return order, nil
}

// UpdateFulfillment advances the fulfillment state machine.
func (s *service) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	order.Status = next
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order status")
	}

	fields := s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"status":       next.String(),
	})
	s.logg.Info(fields, "order status updated")
	return order, nil
}

func (s *service) findByNumber(ctx context.Context, number string) (*models.Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
