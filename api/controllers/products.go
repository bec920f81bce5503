package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	"github.com/angelmondragon/tubeshop-backend/api/validators"
	productsvc "github.com/angelmondragon/tubeshop-backend/internal/products"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/pagination"
)

// ProductList serves the filtered catalog page.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		filter, err := parseProductFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseProductFilter(r *http.Request) (productsvc.Filter, error) {
	q := r.URL.Query()
	filter := productsvc.Filter{
		Warehouse:   validators.SanitizeString(q.Get("warehouse"), 200),
		ProductType: validators.SanitizeString(q.Get("product_type"), 200),
		GOST:        validators.SanitizeString(q.Get("gost"), 100),
		SteelGrade:  validators.SanitizeString(q.Get("steel_grade"), 100),
	}

	var err error
	if filter.DiameterMin, err = validators.ParseQueryDecimal(r, "diameter_min"); err != nil {
		return filter, err
	}
	if filter.DiameterMax, err = validators.ParseQueryDecimal(r, "diameter_max"); err != nil {
		return filter, err
	}
	if filter.WallThicknessMin, err = validators.ParseQueryDecimal(r, "wall_thickness_min"); err != nil {
		return filter, err
	}
	if filter.WallThicknessMax, err = validators.ParseQueryDecimal(r, "wall_thickness_max"); err != nil {
		return filter, err
	}

	page, err := validators.ParseQueryInt(r, "page_number", pagination.DefaultPage, 1, 1_000_000)
	if err != nil {
		return filter, err
	}
	size, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
	if err != nil {
		return filter, err
	}
	filter.Page = pagination.Params{Page: page, PageSize: size}
	return filter, nil
}

// ProductGet returns one catalog position.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, p)
	}
}

// ProductValues serves one of the distinct value lists used by the filters.
func ProductValues(svc productsvc.Service, logg *logger.Logger, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			values []string
			err    error
		)
		switch strings.ToLower(kind) {
		case "warehouses":
			values, err = svc.Warehouses(r.Context())
		case "types":
			values, err = svc.ProductTypes(r.Context())
		case "gosts":
			values, err = svc.GOSTs(r.Context())
		case "steel-grades":
			values, err = svc.SteelGrades(r.Context())
		default:
			err = pkgerrors.New(pkgerrors.CodeNotFound, "unknown value list")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, values)
	}
}

func ProductFilterOptions(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := svc.FilterOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, opts)
	}
}
