package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/resinriver/storefront/api/responses"
	"github.com/resinriver/storefront/api/validators"
	"github.com/resinriver/storefront/internal/catalog"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/pagination"
)

const maxSearchLen = 200

// CatalogList browses available items with category, tag, text, price and sort filters.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog"))
			return
		}

		input, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.List(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseCatalogQuery(r *http.Request) (catalog.ListInput, error) {
	q := r.URL.Query()

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return catalog.ListInput{}, err
	}
	size, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return catalog.ListInput{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return catalog.ListInput{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return catalog.ListInput{}, err
	}
	sort, err := enums.ParseItemSort(strings.TrimSpace(q.Get("sort")))
	if err != nil {
		return catalog.ListInput{}, pkgerrors.Field("sort", "Select a valid choice.")
	}

	return catalog.ListInput{
		Filters: catalog.ListFilters{
			CategorySlug:   strings.TrimSpace(q.Get("category")),
			Tag:            strings.TrimSpace(q.Get("tag")),
			Query:          validators.SanitizeString(q.Get("q"), maxSearchLen),
			MinPrice:       minPrice,
			MaxPrice:       maxPrice,
			Sort:           sort,
			IncludeSoldOut: validators.ParseQueryBool(r, "include_sold_out"),
		},
		Page: pagination.NewPage(page, size),
	}, nil
}

func CatalogDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog"))
			return
		}
		item, err := svc.Detail(ctx, chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CatalogHome(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog"))
			return
		}
		home, err := svc.Home(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, home)
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog"))
			return
		}
		categories, err := svc.Categories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}
