package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	"github.com/angelmondragon/tubeshop-backend/api/validators"
	"github.com/angelmondragon/tubeshop-backend/internal/datasync"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/types"
)

type priceUpdateRequest struct {
	SKU         string          `json:"sku" validate:"required"`
	PricePerTon decimal.Decimal `json:"price_per_ton"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (r priceUpdateRequest) toUpdate() datasync.PriceUpdate {
	return datasync.PriceUpdate{SKU: r.SKU, PricePerTon: r.PricePerTon, Timestamp: r.Timestamp}
}

type stockUpdateRequest struct {
	SKU         string          `json:"sku" validate:"required"`
	DeltaTons   decimal.Decimal `json:"delta_tons"`
	DeltaMeters decimal.Decimal `json:"delta_meters"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (r stockUpdateRequest) toUpdate() datasync.StockUpdate {
	return datasync.StockUpdate{SKU: r.SKU, DeltaTons: r.DeltaTons, DeltaMeters: r.DeltaMeters, Timestamp: r.Timestamp}
}

type pricesBatchRequest struct {
	Prices []priceUpdateRequest `json:"prices" validate:"dive"`
}

type stocksBatchRequest struct {
	Stocks []stockUpdateRequest `json:"stocks" validate:"dive"`
}

type batchResult struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
	TotalSent    int    `json:"total_sent"`
}

func SyncPrices(svc datasync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload pricesBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updates := make([]datasync.PriceUpdate, 0, len(payload.Prices))
		for _, p := range payload.Prices {
			updates = append(updates, p.toUpdate())
		}
		n, err := svc.SyncPrices(r.Context(), updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batchResult{Message: "prices updated", UpdatedCount: n, TotalSent: len(updates)})
	}
}

func SyncStocks(svc datasync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload stocksBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updates := make([]datasync.StockUpdate, 0, len(payload.Stocks))
		for _, s := range payload.Stocks {
			updates = append(updates, s.toUpdate())
		}
		n, err := svc.SyncStocks(r.Context(), updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batchResult{Message: "stocks updated", UpdatedCount: n, TotalSent: len(updates)})
	}
}

// SyncPrice replaces the price of one SKU; an unknown SKU is a 404.
func SyncPrice(svc datasync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload priceUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "sku", payload.SKU)
		n, err := svc.UpdatePrice(ctx, payload.toUpdate())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if n == 0 {
			responses.WriteError(ctx, logg, w, skuNotFound(payload.SKU))
			return
		}
		responses.WriteSuccess(w, types.MessagePayload{Message: "price updated", SKU: payload.SKU})
	}
}

// SyncStock applies a stock delta to one SKU; an unknown SKU is a 404.
func SyncStock(svc datasync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload stockUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "sku", payload.SKU)
		n, err := svc.UpdateStock(ctx, payload.toUpdate())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if n == 0 {
			responses.WriteError(ctx, logg, w, skuNotFound(payload.SKU))
			return
		}
		responses.WriteSuccess(w, types.MessagePayload{Message: "stock updated", SKU: payload.SKU})
	}
}

func skuNotFound(sku string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product with SKU %q not found", sku))
}

// SyncProcessUpdates scans the updates directory. A run already in progress
// is a 409; any other failure is a 500.
func SyncProcessUpdates(svc datasync.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.ProcessAllUpdates(r.Context())
		if err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to process update files")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message":   "all update files processed",
			"timestamp": time.Now().UTC(),
			"report":    report,
		})
	}
}
