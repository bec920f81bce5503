package cart

import (
	"net/http"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	"github.com/angelmondragon/tubeshop-backend/api/validators"
	cartsvc "github.com/angelmondragon/tubeshop-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

// CartFetch returns the user's cart or 404 when none exists.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseInt64Param(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithTelegramUserID(r.Context(), userID)

		cart, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if cart == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found"))
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAddItem adds a quantity of a product, accumulating an existing line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithFields(r.Context(), map[string]any{
			"telegram_user_id": input.TelegramUserID,
			"product_id":       input.ProductID.String(),
		})

		cart, err := svc.AddItem(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartUpdateItem replaces the quantity of one line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "cart_item_id", itemID.String())

		cart, err := svc.UpdateItemQuantity(ctx, itemID, payload.QuantityMeters, payload.QuantityTons)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "cart_item_id", itemID.String())

		cart, err := svc.RemoveItem(ctx, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartClear empties the user's cart. A missing cart is not an error.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseInt64Param(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithTelegramUserID(r.Context(), userID)

		if err := svc.Clear(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "cart cleared")
	}
}
