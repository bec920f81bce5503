package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	"github.com/angelmondragon/tubeshop-backend/api/validators"
	internalorders "github.com/angelmondragon/tubeshop-backend/internal/orders"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

type createOrderRequest struct {
	TelegramUserID  int64   `json:"telegram_user_id" validate:"required,gt=0"`
	CustomerName    string  `json:"customer_name" validate:"required,max=200"`
	CustomerPhone   string  `json:"customer_phone" validate:"required,max=50"`
	CustomerEmail   *string `json:"customer_email,omitempty" validate:"omitempty,email,max=200"`
	CustomerINN     *string `json:"customer_inn,omitempty" validate:"omitempty,max=20"`
	DeliveryAddress *string `json:"delivery_address,omitempty" validate:"omitempty,max=500"`
	CompanyName     *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	Comment         *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

func (r createOrderRequest) toInput() internalorders.CreateOrderInput {
	return internalorders.CreateOrderInput{
		TelegramUserID:  r.TelegramUserID,
		CustomerName:    validators.SanitizeString(r.CustomerName, 200),
		CustomerPhone:   validators.SanitizeString(r.CustomerPhone, 50),
		CustomerEmail:   optional(r.CustomerEmail, 200),
		CustomerINN:     optional(r.CustomerINN, 20),
		DeliveryAddress: optional(r.DeliveryAddress, 500),
		CompanyName:     optional(r.CompanyName, 200),
		Comment:         optional(r.Comment, 1000),
	}
}

func optional(v *string, maxLen int) *string {
	if v == nil {
		return nil
	}
	s := validators.SanitizeString(*v, maxLen)
	if s == "" {
		return nil
	}
	return &s
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create checks out the user's cart.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithTelegramUserID(r.Context(), payload.TelegramUserID)

		order, err := svc.CreateFromCart(ctx, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func DetailByNumber(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimSpace(chi.URLParam(r, "number"))
		if number == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order number is required"))
			return
		}
		ctx := logg.WithOrderNumber(r.Context(), number)
		order, err := svc.GetByNumber(ctx, number)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListByUser returns the user's orders, newest first.
func ListByUser(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseInt64Param(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithTelegramUserID(r.Context(), userID)
		list, err := svc.ListByUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Profile returns the contact details of the user's latest order.
func Profile(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseInt64Param(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithTelegramUserID(r.Context(), userID)
		profile, err := svc.Profile(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if profile == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found"))
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
