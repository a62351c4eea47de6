package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/internal/cart"
	"github.com/sanbenito/ferreteria-backend/internal/catalog"
	"github.com/sanbenito/ferreteria-backend/internal/orders"
	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/metrics"
)

// ErrEmptyCart signals a checkout attempted with nothing purchasable in the
// cart. Callers surface it as a notice rather than a failure.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// Input carries the buyer-provided fields of a checkout.
type Input struct {
	DeliveryAddress string `json:"delivery_address" validate:"required"`
	ContactPhone    string `json:"contact_phone" validate:"required"`
	PaymentMethod   string `json:"payment_method" validate:"required"`
	PaymentNote     string `json:"payment_note"`
}

// Service turns a cart into an order.
type Service interface {
	Execute(ctx context.Context, id cart.Identity, input Input) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	carts    cart.Service
	products catalog.Repository
	orders   orders.Repository
	numbers  NumberGenerator
	tx       txRunner
	metrics  *metrics.HTTPMetrics
	logg     *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(carts cart.Service, products catalog.Repository, orderRepo orders.Repository, numbers NumberGenerator, tx txRunner, m *metrics.HTTPMetrics, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("number generator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		products: products,
		orders:   orderRepo,
		numbers:  numbers,
		tx:       tx,
		metrics:  m,
		logg:     logg,
	}, nil
}

// Execute prices the cart against the current catalog, creates the order with
// frozen unit prices, and decrements stock where enough remains. Lines whose
// product disappeared or went inactive since they were added are dropped.
func (s *service) Execute(ctx context.Context, id cart.Identity, input Input) (*models.Order, error) {
	if id.UserID == nil || *id.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "checkout requires an authenticated user")
	}
	if id.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	// The cart is read before the buyer fields are checked; an empty cart
	// answers as such even when the submission is incomplete.
	snapshot, err := s.carts.Snapshot(ctx, id)
	if err != nil {
		s.metrics.IncCheckout("failed")
		return nil, err
	}

	lines, err := s.buildLines(ctx, snapshot)
	if err != nil {
		s.metrics.IncCheckout("failed")
		return nil, err
	}
	if len(lines) == 0 {
		s.metrics.IncCheckout("empty_cart")
		return nil, ErrEmptyCart
	}

	if input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if input.ContactPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact phone is required")
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	number, err := s.numbers.Next(ctx, time.Now())
	if err != nil {
		s.metrics.IncCheckout("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate order number")
	}

	order := &models.Order{
		UserID:          *id.UserID,
		OrderNumber:     number,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   method,
		DeliveryAddress: input.DeliveryAddress,
		ContactPhone:    input.ContactPhone,
		PaymentNote:     input.PaymentNote,
		Items:           lines,
	}
	for i := range order.Items {
		order.Items[i].Subtotal = order.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(order.Items[i].Quantity)))
	}
	order.RecalculateTotal()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		stock := s.products.WithTx(tx)
		for _, item := range order.Items {
			ok, err := stock.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				warnCtx := s.logg.WithFields(ctx, map[string]any{
					"order_number": number,
					"product_id":   item.ProductID.String(),
					"quantity":     item.Quantity,
				})
				s.logg.Warn(warnCtx, "stock was not decremented, not enough remaining")
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.IncCheckout("failed")
		return nil, err
	}

	// The order exists at this point; a cart that fails to clear is only noise.
	if err := s.carts.Clear(ctx, id); err != nil {
		s.logg.Error(s.logg.WithOrderNumber(ctx, number), "clearing cart after checkout", err)
	}

	s.metrics.IncCheckout("created")
	s.logg.Info(s.logg.WithOrderNumber(ctx, number), "order created")
	return order, nil
}

// buildLines re-prices the snapshot against the current catalog. The unit
// price written here is the one the order keeps forever.
func (s *service) buildLines(ctx context.Context, snapshot map[uuid.UUID]int) ([]models.OrderLineItem, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(snapshot))
	for pid := range snapshot {
		ids = append(ids, pid)
	}
	products, err := s.products.FindActiveProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	lines := make([]models.OrderLineItem, 0, len(products))
	for _, product := range products {
		quantity := snapshot[product.ID]
		if quantity <= 0 {
			continue
		}
		lines = append(lines, models.OrderLineItem{
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
	}
	return lines, nil
}
