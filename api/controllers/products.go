package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarm/shopyard-backend/api/responses"
	products "github.com/avelarm/shopyard-backend/internal/products"
	pkgerrors "github.com/avelarm/shopyard-backend/pkg/errors"
	"github.com/avelarm/shopyard-backend/pkg/logger"
	"github.com/avelarm/shopyard-backend/pkg/pagination"
)

// ProductList serves the public catalog browse endpoint.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, params, err := parseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// ProductFetch serves one catalog listing by id.
func ProductFetch(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products.FromModel(product))
	}
}

func parseListQuery(r *http.Request) (products.ListFilters, pagination.Params, error) {
	query := r.URL.Query()

	filters := products.ListFilters{
		Query:      strings.TrimSpace(query.Get("q")),
		ActiveOnly: true,
	}
	if raw := query.Get("include_inactive"); raw == "true" {
		filters.ActiveOnly = false
	}
	if raw := query.Get("in_stock"); raw == "true" {
		inStock := true
		filters.InStock = &inStock
	}
	if raw := query.Get("price_min"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filters, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_min")
		}
		filters.PriceMin = &v
	}
	if raw := query.Get("price_max"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filters, pagination.Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price_max")
		}
		filters.PriceMax = &v
	}

	params := pagination.Params{Cursor: query.Get("cursor")}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filters, params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit")
		}
		params.Limit = limit
	}
	return filters, params, nil
}
