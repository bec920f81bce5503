package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/angelmondragon/tubeshop-backend/internal/cart"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
)

type addItemRequest struct {
	TelegramUserID int64            `json:"telegram_user_id" validate:"required,gt=0"`
	ProductID      string           `json:"product_id" validate:"required,uuid"`
	QuantityMeters *decimal.Decimal `json:"quantity_meters,omitempty"`
	QuantityTons   *decimal.Decimal `json:"quantity_tons,omitempty"`
	PreferredUnit  *string          `json:"preferred_unit,omitempty"`
}

func (r addItemRequest) toInput() (cartsvc.AddItemInput, error) {
	productID, err := uuid.Parse(strings.TrimSpace(r.ProductID))
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	input := cartsvc.AddItemInput{
		TelegramUserID: r.TelegramUserID,
		ProductID:      productID,
		QuantityMeters: r.QuantityMeters,
		QuantityTons:   r.QuantityTons,
	}
	if r.PreferredUnit != nil && strings.TrimSpace(*r.PreferredUnit) != "" {
		unit, err := enums.ParseQuantityUnit(strings.TrimSpace(*r.PreferredUnit))
		if err != nil {
			return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid preferred_unit")
		}
		input.PreferredUnit = &unit
	}
	return input, nil
}

type updateItemRequest struct {
	QuantityMeters *decimal.Decimal `json:"quantity_meters,omitempty"`
	QuantityTons   *decimal.Decimal `json:"quantity_tons,omitempty"`
}
