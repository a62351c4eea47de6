package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sanbenito/ferreteria-backend/pkg/db/models"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/pagination"
)

type testTx struct {
	db *gorm.DB
}

func (t testTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Product{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), testTx{db: db}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()

	category := models.Category{Name: name, Slug: slug, IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func seedProduct(t *testing.T, db *gorm.DB, category *models.Category, name string, price string, stock int, opts ...func(*models.Product)) *models.Product {
	t.Helper()

	product := models.Product{
		CategoryID:    category.ID,
		Name:          name,
		Slug:          slugOrDerive("", name),
		Price:         decimal.RequireFromString(price),
		PriceCurrency: enums.CurrencyUSD,
		Stock:         stock,
		StockAlert:    5,
		IsActive:      true,
	}
	for _, opt := range opts {
		opt(&product)
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func featured(p *models.Product) { p.IsFeatured = true }
func inactive(p *models.Product) { p.IsActive = false }

func TestListProductsFiltersAndOrder(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)
	herramientas := seedCategory(t, db, "Herramientas", "herramientas")
	plomeria := seedCategory(t, db, "Plomería", "plomeria")

	seedProduct(t, db, herramientas, "Martillo", "8.50", 10)
	seedProduct(t, db, herramientas, "Alicate", "6.00", 3, featured)
	seedProduct(t, db, plomeria, "Tubo PVC", "2.25", 50)
	seedProduct(t, db, herramientas, "Taladro viejo", "30.00", 1, inactive)

	ctx := context.Background()

	products, page, err := svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalRows != 3 {
		t.Fatalf("inactive product leaked into listing, total=%d", page.TotalRows)
	}
	if products[0].Name != "Alicate" {
		t.Fatalf("expected featured product first, got %q", products[0].Name)
	}

	products, _, err = svc.ListProducts(ctx, ListProductsInput{
		Filters:    ListFilters{CategorySlug: "plomeria"},
		Pagination: pagination.Params{Page: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Tubo PVC" {
		t.Fatalf("unexpected category filter result: %+v", products)
	}

	products, _, err = svc.ListProducts(ctx, ListProductsInput{
		Filters:    ListFilters{Query: "marti"},
		Pagination: pagination.Params{Page: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Martillo" {
		t.Fatalf("unexpected search result: %+v", products)
	}
}

func TestListProductsPagination(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)
	category := seedCategory(t, db, "Herramientas", "herramientas")
	for i := 0; i < 5; i++ {
		seedProduct(t, db, category, fmt.Sprintf("Producto %d", i), "1.00", 10)
	}

	products, page, err := svc.ListProducts(context.Background(), ListProductsInput{
		Pagination: pagination.Params{Page: 2, Limit: 2},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 rows on page 2, got %d", len(products))
	}
	if page.TotalPages != 3 || page.TotalRows != 5 {
		t.Fatalf("unexpected page descriptor %+v", page)
	}
}

func TestGetProductBySlug(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)
	category := seedCategory(t, db, "Herramientas", "herramientas")
	product := seedProduct(t, db, category, "Martillo", "8.50", 10)
	seedProduct(t, db, category, "Alicate", "6.00", 3)
	seedProduct(t, db, category, "Destornillador", "4.00", 7)
	hidden := seedProduct(t, db, category, "Cincel", "3.00", 2, inactive)

	detail, err := svc.GetProductBySlug(context.Background(), product.Slug)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Product.ID != product.ID {
		t.Fatal("wrong product loaded")
	}
	if len(detail.Related) != 2 {
		t.Fatalf("expected 2 related products, got %d", len(detail.Related))
	}
	for _, rel := range detail.Related {
		if rel.ID == product.ID || rel.ID == hidden.ID {
			t.Fatalf("related listing includes excluded product %q", rel.Name)
		}
	}

	_, err = svc.GetProductBySlug(context.Background(), hidden.Slug)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("inactive product should read as not found, got %v", err)
	}

	_, err = svc.GetProductBySlug(context.Background(), "no-such")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)
	category := seedCategory(t, db, "Herramientas", "herramientas")
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: category.ID,
		Name:       "Llave Inglesa 12\"",
		Price:      decimal.RequireFromString("15.00"),
		Stock:      8,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.Slug != "llave-inglesa-12" {
		t.Fatalf("unexpected derived slug %q", product.Slug)
	}
	if product.PriceCurrency != enums.CurrencyUSD {
		t.Fatalf("expected USD default, got %s", product.PriceCurrency)
	}
	if product.StockAlert != 5 {
		t.Fatalf("expected default stock alert, got %d", product.StockAlert)
	}

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: category.ID,
		Name:       "Llave Inglesa 12\"",
		Price:      decimal.RequireFromString("15.00"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected slug conflict, got %v", err)
	}

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: category.ID,
		Name:       "Gratis",
		Price:      decimal.Zero,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected price validation error, got %v", err)
	}

	_, err = svc.CreateProduct(ctx, CreateProductInput{
		CategoryID: uuid.New(),
		Name:       "Huérfano",
		Price:      decimal.NewFromInt(1),
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected missing category validation, got %v", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)
	category := seedCategory(t, db, "Herramientas", "herramientas")
	product := seedProduct(t, db, category, "Martillo", "8.50", 10)

	newPrice := decimal.RequireFromString("9.75")
	isFeatured := true
	updated, err := svc.UpdateProduct(context.Background(), product.ID, UpdateProductInput{
		Price:      &newPrice,
		IsFeatured: &isFeatured,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Price.Equal(newPrice) || !updated.IsFeatured {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Name != "Martillo" {
		t.Fatal("untouched field changed")
	}

	negative := -1
	_, err = svc.UpdateProduct(context.Background(), product.ID, UpdateProductInput{Stock: &negative})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected stock validation error, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)
	category := seedCategory(t, db, "Herramientas", "herramientas")
	product := seedProduct(t, db, category, "Martillo", "8.50", 10)
	ctx := context.Background()

	updated, err := svc.AdjustStock(ctx, product.ID, -4)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.Stock != 6 {
		t.Fatalf("expected stock 6, got %d", updated.Stock)
	}

	_, err = svc.AdjustStock(ctx, product.ID, -100)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected negative-stock guard, got %v", err)
	}

	_, err = svc.AdjustStock(ctx, uuid.New(), 1)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeactivateProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)
	category := seedCategory(t, db, "Herramientas", "herramientas")
	product := seedProduct(t, db, category, "Martillo", "8.50", 10)

	if err := svc.DeactivateProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	if reloaded.IsActive {
		t.Fatal("product still active")
	}

	// Second deactivation is a no-op.
	if err := svc.DeactivateProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("repeat deactivate: %v", err)
	}
}

func TestCreateCategory(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newTestService(t, db)

	category, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name:      "Electricidad",
		SortOrder: 2,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if category.Slug != "electricidad" {
		t.Fatalf("unexpected slug %q", category.Slug)
	}

	_, err = svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Electricidad"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected slug conflict, got %v", err)
	}
}
