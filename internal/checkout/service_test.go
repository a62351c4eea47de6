package checkout

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/internal/cart"
	"github.com/sanbenito/ferreteria-backend/internal/catalog"
	"github.com/sanbenito/ferreteria-backend/internal/orders"
	"github.com/sanbenito/ferreteria-backend/internal/pricing"
	"github.com/sanbenito/ferreteria-backend/internal/rates"
	"github.com/sanbenito/ferreteria-backend/pkg/config"
	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/metrics"
)

type fakeSession struct {
	carts      map[string]map[string]int
	currencies map[string]string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		carts:      make(map[string]map[string]int),
		currencies: make(map[string]string),
	}
}

func (f *fakeSession) GetCart(_ context.Context, sessionID string) (map[string]int, error) {
	out := make(map[string]int, len(f.carts[sessionID]))
	for k, v := range f.carts[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSession) SetCartLine(_ context.Context, sessionID, productID string, quantity int) error {
	if f.carts[sessionID] == nil {
		f.carts[sessionID] = make(map[string]int)
	}
	f.carts[sessionID][productID] = quantity
	return nil
}

func (f *fakeSession) RemoveCartLine(_ context.Context, sessionID, productID string) error {
	delete(f.carts[sessionID], productID)
	return nil
}

func (f *fakeSession) ReplaceCart(_ context.Context, sessionID string, cart map[string]int) error {
	replacement := make(map[string]int, len(cart))
	for k, v := range cart {
		replacement[k] = v
	}
	f.carts[sessionID] = replacement
	return nil
}

func (f *fakeSession) ClearCart(_ context.Context, sessionID string) error {
	delete(f.carts, sessionID)
	return nil
}

func (f *fakeSession) GetCurrency(_ context.Context, sessionID string) (string, error) {
	return f.currencies[sessionID], nil
}

func (f *fakeSession) SetCurrency(_ context.Context, sessionID, code string) error {
	f.currencies[sessionID] = code
	return nil
}

type fakeCounter struct {
	counts map[string]int64
}

func (f *fakeCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) CounterKey(name string) string {
	return "fsb:counter:" + name
}

type identityResolver struct{}

func (identityResolver) Resolve(_ context.Context, _, _ enums.Currency) (rates.Resolution, error) {
	return rates.Resolution{Rate: decimal.NewFromInt(1), Converted: true}, nil
}

type testTx struct {
	db *gorm.DB
}

func (t testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type checkoutFixture struct {
	svc     Service
	carts   cart.Service
	session *fakeSession
	db      *gorm.DB
	user    *models.User
}

func setupCheckoutFixture(t *testing.T) checkoutFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderLineItem{},
	))

	user := &models.User{Email: "comprador@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	currency := config.CurrencyConfig{
		Principal: "USD",
		Display:   []string{"USD"},
		Precision: 2,
		Symbols:   map[string]string{"USD": "$"},
	}
	pricer, err := pricing.NewService(identityResolver{}, currency)
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test"})
	session := newFakeSession()
	catalogRepo := catalog.NewRepository(db)

	carts, err := cart.NewService(session, cart.NewRepository(db), catalogRepo, pricer, testTx{db: db}, currency, logg)
	require.NoError(t, err)

	numbers, err := NewNumberGenerator(&fakeCounter{}, config.CheckoutConfig{OrderNumberPrefix: "PED"})
	require.NoError(t, err)

	svc, err := NewService(carts, catalogRepo, orders.NewRepository(db), numbers, testTx{db: db}, metrics.NewHTTPMetrics(nil), logg)
	require.NoError(t, err)

	return checkoutFixture{svc: svc, carts: carts, session: session, db: db, user: user}
}

func (fx checkoutFixture) identity(sessionID string) cart.Identity {
	return cart.Identity{SessionID: sessionID, UserID: &fx.user.ID}
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()

	category := models.Category{Name: "Herramientas", Slug: "herramientas-" + uuid.NewString()[:8], IsActive: true}
	require.NoError(t, db.Create(&category).Error)

	product := models.Product{
		CategoryID:    category.ID,
		Name:          name,
		Slug:          strings.ToLower(name) + "-" + uuid.NewString()[:8],
		Price:         decimal.RequireFromString(price),
		PriceCurrency: enums.CurrencyUSD,
		Stock:         stock,
		StockAlert:    5,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func validInput() Input {
	return Input{
		DeliveryAddress: "Av. Bolívar 123, San Benito",
		ContactPhone:    "+58 412 5550123",
		PaymentMethod:   "mobile_payment",
		PaymentNote:     "ref 00123",
	}
}

func TestExecuteCreatesOrder(t *testing.T) {
	fx := setupCheckoutFixture(t)
	martillo := seedCheckoutProduct(t, fx.db, "Martillo", "8.50", 10)
	alicate := seedCheckoutProduct(t, fx.db, "Alicate", "6.00", 3)
	ctx := context.Background()
	id := fx.identity("sess-1")

	_, err := fx.carts.Add(ctx, id, martillo.ID, 2)
	require.NoError(t, err)
	_, err = fx.carts.Add(ctx, id, alicate.ID, 1)
	require.NoError(t, err)

	order, err := fx.svc.Execute(ctx, id, validInput())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	pattern := regexp.MustCompile(`^PED-\d{8}-0001$`)
	if !pattern.MatchString(order.OrderNumber) {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("new order should start pending/pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Items))
	}
	if !order.Total.Equal(decimal.RequireFromString("23.00")) {
		t.Fatalf("expected total 23.00, got %s", order.Total)
	}

	// Stock decremented and cart cleared on both backends.
	var reloaded models.Product
	require.NoError(t, fx.db.First(&reloaded, "id = ?", martillo.ID).Error)
	if reloaded.Stock != 8 {
		t.Fatalf("expected stock 8 after checkout, got %d", reloaded.Stock)
	}

	snapshot, err := fx.carts.Snapshot(ctx, id)
	require.NoError(t, err)
	if len(snapshot) != 0 {
		t.Fatalf("cart should be empty after checkout, got %v", snapshot)
	}
	var rowCount int64
	require.NoError(t, fx.db.Model(&models.CartItem{}).Where("user_id = ?", fx.user.ID).Count(&rowCount).Error)
	if rowCount != 0 {
		t.Fatalf("persistent cart should be empty after checkout, got %d rows", rowCount)
	}
}

func TestExecuteFreezesUnitPrices(t *testing.T) {
	fx := setupCheckoutFixture(t)
	product := seedCheckoutProduct(t, fx.db, "Martillo", "8.50", 10)
	ctx := context.Background()
	id := fx.identity("sess-1")

	_, err := fx.carts.Add(ctx, id, product.ID, 1)
	require.NoError(t, err)

	order, err := fx.svc.Execute(ctx, id, validInput())
	require.NoError(t, err)

	require.NoError(t, fx.db.Model(product).Update("price", decimal.RequireFromString("99.99")).Error)

	var line models.OrderLineItem
	require.NoError(t, fx.db.First(&line, "order_id = ?", order.ID).Error)
	if !line.UnitPrice.Equal(decimal.RequireFromString("8.5")) {
		t.Fatalf("unit price should stay frozen at 8.50, got %s", line.UnitPrice)
	}
}

func TestExecuteEmptyCart(t *testing.T) {
	fx := setupCheckoutFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Execute(ctx, fx.identity("sess-1"), validInput())
	if err != ErrEmptyCart {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestExecuteDropsStaleLines(t *testing.T) {
	fx := setupCheckoutFixture(t)
	martillo := seedCheckoutProduct(t, fx.db, "Martillo", "8.50", 10)
	retirado := seedCheckoutProduct(t, fx.db, "Retirado", "5.00", 10)
	ctx := context.Background()
	id := fx.identity("sess-1")

	_, err := fx.carts.Add(ctx, id, martillo.ID, 1)
	require.NoError(t, err)
	_, err = fx.carts.Add(ctx, id, retirado.ID, 2)
	require.NoError(t, err)

	require.NoError(t, fx.db.Model(retirado).Update("is_active", false).Error)

	order, err := fx.svc.Execute(ctx, id, validInput())
	require.NoError(t, err)
	if len(order.Items) != 1 || order.Items[0].ProductID != martillo.ID {
		t.Fatalf("deactivated product should be dropped, got %+v", order.Items)
	}
}

func TestExecuteEverythingStaleIsEmptyCart(t *testing.T) {
	fx := setupCheckoutFixture(t)
	retirado := seedCheckoutProduct(t, fx.db, "Retirado", "5.00", 10)
	ctx := context.Background()
	id := fx.identity("sess-1")

	_, err := fx.carts.Add(ctx, id, retirado.ID, 2)
	require.NoError(t, err)
	require.NoError(t, fx.db.Model(retirado).Update("is_active", false).Error)

	_, err = fx.svc.Execute(ctx, id, validInput())
	if err != ErrEmptyCart {
		t.Fatalf("expected ErrEmptyCart when every line is stale, got %v", err)
	}
}

func TestExecuteInsufficientStockSkipsDecrement(t *testing.T) {
	fx := setupCheckoutFixture(t)
	product := seedCheckoutProduct(t, fx.db, "Martillo", "8.50", 5)
	ctx := context.Background()
	id := fx.identity("sess-1")

	_, err := fx.carts.Add(ctx, id, product.ID, 4)
	require.NoError(t, err)

	// Another checkout drains the stock between add and execute.
	require.NoError(t, fx.db.Model(product).Update("stock", 2).Error)

	order, err := fx.svc.Execute(ctx, id, validInput())
	if err != nil {
		t.Fatalf("checkout should still succeed: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 4 {
		t.Fatalf("line should keep the requested quantity, got %+v", order.Items)
	}

	var reloaded models.Product
	require.NoError(t, fx.db.First(&reloaded, "id = ?", product.ID).Error)
	if reloaded.Stock != 2 {
		t.Fatalf("guard failed, stock should be untouched at 2, got %d", reloaded.Stock)
	}
}

func TestExecuteEmptyCartBeforeValidation(t *testing.T) {
	fx := setupCheckoutFixture(t)
	ctx := context.Background()

	input := validInput()
	input.DeliveryAddress = ""

	_, err := fx.svc.Execute(ctx, fx.identity("sess-1"), input)
	if err != ErrEmptyCart {
		t.Fatalf("empty cart should answer before field validation, got %v", err)
	}
}

func TestExecuteValidation(t *testing.T) {
	fx := setupCheckoutFixture(t)
	product := seedCheckoutProduct(t, fx.db, "Martillo", "8.50", 10)
	ctx := context.Background()

	_, err := fx.carts.Add(ctx, fx.identity("sess-1"), product.ID, 1)
	require.NoError(t, err)

	cases := []struct {
		name   string
		id     cart.Identity
		mutate func(*Input)
		code   pkgerrors.Code
	}{
		{
			name: "anonymous identity",
			id:   cart.Identity{SessionID: "sess-1"},
			code: pkgerrors.CodeUnauthorized,
		},
		{
			name:   "missing address",
			id:     fx.identity("sess-1"),
			mutate: func(in *Input) { in.DeliveryAddress = "" },
			code:   pkgerrors.CodeValidation,
		},
		{
			name:   "missing phone",
			id:     fx.identity("sess-1"),
			mutate: func(in *Input) { in.ContactPhone = "" },
			code:   pkgerrors.CodeValidation,
		},
		{
			name:   "unknown payment method",
			id:     fx.identity("sess-1"),
			mutate: func(in *Input) { in.PaymentMethod = "gold_bars" },
			code:   pkgerrors.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			if tc.mutate != nil {
				tc.mutate(&input)
			}
			_, err := fx.svc.Execute(ctx, tc.id, input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestNumberGeneratorSequence(t *testing.T) {
	gen, err := NewNumberGenerator(&fakeCounter{}, config.CheckoutConfig{OrderNumberPrefix: "PED"})
	require.NoError(t, err)

	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	first, err := gen.Next(context.Background(), at)
	require.NoError(t, err)
	second, err := gen.Next(context.Background(), at)
	require.NoError(t, err)

	if first != "PED-20260115-0001" {
		t.Fatalf("unexpected first number %q", first)
	}
	if second != "PED-20260115-0002" {
		t.Fatalf("unexpected second number %q", second)
	}

	nextDay, err := gen.Next(context.Background(), at.Add(24*time.Hour))
	require.NoError(t, err)
	if nextDay != "PED-20260116-0001" {
		t.Fatalf("counter should reset per day, got %q", nextDay)
	}
}
