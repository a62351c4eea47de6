package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/internal/pricing"
	"github.com/sanbenito/ferreteria-backend/pkg/config"
	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
)

type sessionStore interface {
	GetCart(ctx context.Context, sessionID string) (map[string]int, error)
	SetCartLine(ctx context.Context, sessionID, productID string, quantity int) error
	RemoveCartLine(ctx context.Context, sessionID, productID string) error
	ReplaceCart(ctx context.Context, sessionID string, cart map[string]int) error
	ClearCart(ctx context.Context, sessionID string) error
	GetCurrency(ctx context.Context, sessionID string) (string, error)
	SetCurrency(ctx context.Context, sessionID, code string) error
}

type productFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Identity names the cart owner: always a session, plus the user when
// authenticated. Authenticated carts are mirrored to rows.
type Identity struct {
	SessionID string
	UserID    *uuid.UUID
}

func (i Identity) authenticated() bool {
	return i.UserID != nil && *i.UserID != uuid.Nil
}

// AddResult reports the post-add quantity and whether it was clamped.
type AddResult struct {
	ProductID   uuid.UUID `json:"product_id"`
	Quantity    int       `json:"quantity"`
	PartialFill bool      `json:"partial_fill"`
}

// Line is one cart entry priced in the selected display currency.
type Line struct {
	Product   models.Product  `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Formatted string          `json:"formatted_subtotal"`
	Converted bool            `json:"converted"`
}

// View is the cart rendered for display.
type View struct {
	Currency       string          `json:"currency"`
	Lines          []Line          `json:"lines"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"total_formatted"`
	ItemCount      int             `json:"item_count"`
}

// Service owns cart state across the session and persistent backends.
type Service interface {
	Add(ctx context.Context, id Identity, productID uuid.UUID, quantity int) (AddResult, error)
	Update(ctx context.Context, id Identity, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, id Identity, productID uuid.UUID) error
	Clear(ctx context.Context, id Identity) error
	View(ctx context.Context, id Identity) (*View, error)
	Snapshot(ctx context.Context, id Identity) (map[uuid.UUID]int, error)
	MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) error
	SelectCurrency(ctx context.Context, sessionID, code string) error
	SelectedCurrency(ctx context.Context, sessionID string) (enums.Currency, error)
}

type service struct {
	session  sessionStore
	rows     Repository
	products productFinder
	pricer   pricing.Service
	tx       txRunner
	currency config.CurrencyConfig
	logg     *logger.Logger
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NewService builds a cart service with the required dependencies.
func NewService(session sessionStore, rows Repository, products productFinder, pricer pricing.Service, tx txRunner, currency config.CurrencyConfig, logg *logger.Logger) (Service, error) {
	if session == nil {
		return nil, fmt.Errorf("session store required")
	}
	if rows == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		session:  session,
		rows:     rows,
		products: products,
		pricer:   pricer,
		tx:       tx,
		currency: currency,
		logg:     logg,
	}, nil
}

func (s *service) Add(ctx context.Context, id Identity, productID uuid.UUID, quantity int) (AddResult, error) {
	if err := validateIdentity(id); err != nil {
		return AddResult{}, err
	}
	if productID == uuid.Nil {
		return AddResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity <= 0 {
		return AddResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AddResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return AddResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Available() {
		return AddResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	existing, err := s.session.GetCart(ctx, id.SessionID)
	if err != nil {
		return AddResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}

	desired := existing[productID.String()] + quantity
	partial := false
	if desired > product.Stock {
		desired = product.Stock
		partial = true
	}

	if err := s.writeLine(ctx, id, productID, desired); err != nil {
		return AddResult{}, err
	}
	return AddResult{ProductID: productID, Quantity: desired, PartialFill: partial}, nil
}

func (s *service) Update(ctx context.Context, id Identity, productID uuid.UUID, quantity int) error {
	if err := validateIdentity(id); err != nil {
		return err
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.Remove(ctx, id, productID)
	}
	return s.writeLine(ctx, id, productID, quantity)
}

func (s *service) Remove(ctx context.Context, id Identity, productID uuid.UUID) error {
	if err := validateIdentity(id); err != nil {
		return err
	}
	if err := s.session.RemoveCartLine(ctx, id.SessionID, productID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if id.authenticated() {
		if err := s.rows.Delete(ctx, *id.UserID, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart row")
		}
	}
	return nil
}

func (s *service) Clear(ctx context.Context, id Identity) error {
	if err := validateIdentity(id); err != nil {
		return err
	}
	if err := s.session.ClearCart(ctx, id.SessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if id.authenticated() {
		if err := s.rows.Clear(ctx, *id.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart rows")
		}
	}
	return nil
}

func (s *service) View(ctx context.Context, id Identity) (*View, error) {
	if err := validateIdentity(id); err != nil {
		return nil, err
	}

	snapshot, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	selected, err := s.SelectedCurrency(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}

	view := &View{Currency: selected.String(), Lines: []Line{}, Total: decimal.Zero}
	products, err := s.activeProducts(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		quantity := snapshot[product.ID]
		unit, res, err := s.pricer.PriceIn(ctx, &product, selected)
		if err != nil {
			return nil, err
		}
		unit = unit.Round(int32(s.currency.Precision))
		subtotal := unit.Mul(decimal.NewFromInt(int64(quantity)))
		view.Lines = append(view.Lines, Line{
			Product:   product,
			Quantity:  quantity,
			UnitPrice: unit,
			Subtotal:  subtotal,
			Formatted: s.pricer.Format(subtotal, selected),
			Converted: res.Converted,
		})
		view.Total = view.Total.Add(subtotal)
		view.ItemCount += quantity
	}
	view.TotalFormatted = s.pricer.Format(view.Total, selected)
	return view, nil
}

// Snapshot returns the current product -> quantity map, dropping lines whose
// product id no longer parses.
func (s *service) Snapshot(ctx context.Context, id Identity) (map[uuid.UUID]int, error) {
	if err := validateIdentity(id); err != nil {
		return nil, err
	}
	raw, err := s.session.GetCart(ctx, id.SessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}
	snapshot := make(map[uuid.UUID]int, len(raw))
	for key, quantity := range raw {
		pid, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		snapshot[pid] = quantity
	}
	return snapshot, nil
}

// MergeOnLogin folds the anonymous session cart into the user's persistent
// rows, then rebuilds the session cart from the rows: persistent storage is
// the source of truth after login.
func (s *service) MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	snapshot, err := s.Snapshot(ctx, Identity{SessionID: sessionID})
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows := s.rows.WithTx(tx)

		existing, err := rows.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart rows")
		}
		current := make(map[uuid.UUID]int, len(existing))
		for _, item := range existing {
			current[item.ProductID] = item.Quantity
		}

		active, err := s.activeProducts(ctx, snapshot)
		if err != nil {
			return err
		}
		for _, product := range active {
			merged := current[product.ID] + snapshot[product.ID]
			item := &models.CartItem{UserID: userID, ProductID: product.ID, Quantity: merged}
			if err := rows.Upsert(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart row")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.rebuildSession(ctx, sessionID, userID)
}

func (s *service) SelectCurrency(ctx context.Context, sessionID, code string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if !s.currency.Displays(code) {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency is not available for display")
	}
	if err := s.session.SetCurrency(ctx, sessionID, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store selected currency")
	}
	return nil
}

func (s *service) SelectedCurrency(ctx context.Context, sessionID string) (enums.Currency, error) {
	stored, err := s.session.GetCurrency(ctx, sessionID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read selected currency")
	}
	if stored != "" && s.currency.Displays(stored) {
		if code, err := enums.ParseCurrency(stored); err == nil {
			return code, nil
		}
	}
	return enums.ParseCurrency(s.currency.Principal)
}

func (s *service) writeLine(ctx context.Context, id Identity, productID uuid.UUID, quantity int) error {
	if err := s.session.SetCartLine(ctx, id.SessionID, productID.String(), quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart line")
	}
	if id.authenticated() {
		item := &models.CartItem{UserID: *id.UserID, ProductID: productID, Quantity: quantity}
		if err := s.rows.Upsert(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart row")
		}
	}
	return nil
}

// activeProducts loads the still-active products referenced by the snapshot.
// Missing or inactive references are dropped silently.
func (s *service) activeProducts(ctx context.Context, snapshot map[uuid.UUID]int) ([]models.Product, error) {
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
	return products, nil
}

func (s *service) rebuildSession(ctx context.Context, sessionID string, userID uuid.UUID) error {
	items, err := s.rows.ListByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart rows")
	}
	rebuilt := make(map[string]int, len(items))
	for _, item := range items {
		rebuilt[item.ProductID.String()] = item.Quantity
	}
	if err := s.session.ReplaceCart(ctx, sessionID, rebuilt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rebuild session cart")
	}
	return nil
}

func validateIdentity(id Identity) error {
	if id.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return nil
}
