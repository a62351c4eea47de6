package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanbenito/ferreteria-backend/api/responses"
	"github.com/sanbenito/ferreteria-backend/api/validators"
	catalogsvc "github.com/sanbenito/ferreteria-backend/internal/catalog"
	"github.com/sanbenito/ferreteria-backend/pkg/enums"
	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
)

type createProductRequest struct {
	CategoryID    string `json:"category_id" validate:"required,uuid"`
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	Slug          string `json:"slug"`
	Price         string `json:"price" validate:"required"`
	PriceCurrency string `json:"price_currency"`
	Stock         int    `json:"stock" validate:"gte=0"`
	StockAlert    int    `json:"stock_alert" validate:"gte=0"`
	ImageURL      string `json:"image_url"`
	IsFeatured    bool   `json:"is_featured"`
}

// AdminProductCreate adds a catalog listing.
func AdminProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := uuid.Parse(payload.CategoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
			return
		}
		price, err := decimal.NewFromString(strings.TrimSpace(payload.Price))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}

		var currency enums.Currency
		if raw := strings.TrimSpace(payload.PriceCurrency); raw != "" {
			currency, err = enums.ParseCurrency(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price currency"))
				return
			}
		}

		product, err := svc.CreateProduct(r.Context(), catalogsvc.CreateProductInput{
			CategoryID:    categoryID,
			Name:          payload.Name,
			Description:   payload.Description,
			Slug:          payload.Slug,
			Price:         price,
			PriceCurrency: currency,
			Stock:         payload.Stock,
			StockAlert:    payload.StockAlert,
			ImageURL:      payload.ImageURL,
			IsFeatured:    payload.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, renderProduct(product, nil))
	}
}

type updateProductRequest struct {
	CategoryID  *string `json:"category_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
	StockAlert  *int    `json:"stock_alert"`
	ImageURL    *string `json:"image_url"`
	IsActive    *bool   `json:"is_active"`
	IsFeatured  *bool   `json:"is_featured"`
}

func (req updateProductRequest) toInput() (catalogsvc.UpdateProductInput, error) {
	input := catalogsvc.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Stock:       req.Stock,
		StockAlert:  req.StockAlert,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
		IsFeatured:  req.IsFeatured,
	}
	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &id
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.Price))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	return input, nil
}

// AdminProductUpdate applies a partial edit to a listing.
func AdminProductUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderProduct(product, nil))
	}
}

// AdminProductDeactivate hides a listing from the storefront without deleting
// it, so past order lines keep their reference.
func AdminProductDeactivate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := svc.DeactivateProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdminProductAdjustStock applies a signed stock delta.
func AdminProductAdjustStock(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AdjustStock(r.Context(), productID, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, renderProduct(product, nil))
	}
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
	SortOrder   int    `json:"sort_order"`
}

// AdminCategoryCreate adds a browsing category.
func AdminCategoryCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalogsvc.CreateCategoryInput{
			Name:        payload.Name,
			Description: payload.Description,
			Slug:        payload.Slug,
			SortOrder:   payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, renderCategory(*category))
	}
}
