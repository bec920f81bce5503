package controllers

import (
	"net/http"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	"github.com/angelmondragon/tubeshop-backend/internal/discounts"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

// DiscountList returns the active discount tiers in threshold order.
func DiscountList(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}
