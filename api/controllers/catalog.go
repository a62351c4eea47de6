package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sanbenito/ferreteria-backend/api/responses"
	catalogsvc "github.com/sanbenito/ferreteria-backend/internal/catalog"
	pricingsvc "github.com/sanbenito/ferreteria-backend/internal/pricing"
	"github.com/sanbenito/ferreteria-backend/pkg/logger"
	"github.com/sanbenito/ferreteria-backend/pkg/pagination"
)

type productListResponse struct {
	Products   []productView   `json:"products"`
	Pagination pagination.Page `json:"pagination"`
}

// ProductList serves the paginated storefront catalog with per-currency
// display prices on every listing.
func ProductList(svc catalogsvc.Service, pricer pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := catalogsvc.ListProductsInput{
			Filters: catalogsvc.ListFilters{
				Query:        strings.TrimSpace(r.URL.Query().Get("q")),
				CategorySlug: strings.TrimSpace(r.URL.Query().Get("category")),
				FeaturedOnly: r.URL.Query().Get("featured") == "true",
			},
			Pagination: pagination.FromRequest(r),
		}

		products, page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]productView, 0, len(products))
		for i := range products {
			prices, err := pricer.DisplayPrices(r.Context(), &products[i])
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			views = append(views, renderProduct(&products[i], prices))
		}

		responses.WriteSuccess(w, productListResponse{Products: views, Pagination: page})
	}
}

type productDetailResponse struct {
	Product productView   `json:"product"`
	Related []productView `json:"related"`
}

// ProductDetail serves one listing by slug with its related products.
func ProductDetail(svc catalogsvc.Service, pricer pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		detail, err := svc.GetProductBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prices, err := pricer.DisplayPrices(r.Context(), detail.Product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		related := make([]productView, 0, len(detail.Related))
		for i := range detail.Related {
			relatedPrices, err := pricer.DisplayPrices(r.Context(), &detail.Related[i])
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			related = append(related, renderProduct(&detail.Related[i], relatedPrices))
		}

		responses.WriteSuccess(w, productDetailResponse{
			Product: renderProduct(detail.Product, prices),
			Related: related,
		})
	}
}

// CategoryList serves the active categories in sort order.
func CategoryList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]categoryView, 0, len(categories))
		for _, category := range categories {
			views = append(views, renderCategory(category))
		}
		responses.WriteSuccess(w, views)
	}
}
