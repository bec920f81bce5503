package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
)

// AddItemInput is the validated add-to-cart request. At least one of
// QuantityMeters and QuantityTons must be positive.
type AddItemInput struct {
	TelegramUserID int64
	ProductID      uuid.UUID
	QuantityMeters *decimal.Decimal
	QuantityTons   *decimal.Decimal
	PreferredUnit  *enums.QuantityUnit
}

type CartDTO struct {
	ID             uuid.UUID       `json:"id"`
	TelegramUserID int64           `json:"telegram_user_id"`
	Items          []CartItemDTO   `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CartItemDTO struct {
	ID              uuid.UUID           `json:"id"`
	CartID          uuid.UUID           `json:"cart_id"`
	ProductID       uuid.UUID           `json:"product_id"`
	Product         *product.ProductDTO `json:"product,omitempty"`
	QuantityMeters  decimal.Decimal     `json:"quantity_meters"`
	QuantityTons    decimal.Decimal     `json:"quantity_tons"`
	PreferredUnit   enums.QuantityUnit  `json:"preferred_unit"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	TotalPrice      decimal.Decimal     `json:"total_price"`
	AddedAt         time.Time           `json:"added_at"`
}

// FromModel maps a cart row and its loaded lines.
func FromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(c.Items))
	for i := range c.Items {
		it := &c.Items[i]
		items = append(items, CartItemDTO{
			ID:              it.ID,
			CartID:          it.CartID,
			ProductID:       it.ProductID,
			Product:         product.FromModel(it.Product),
			QuantityMeters:  it.QuantityMeters,
			QuantityTons:    it.QuantityTons,
			PreferredUnit:   it.PreferredUnit,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TotalPrice:      it.TotalPrice,
			AddedAt:         it.AddedAt,
		})
	}
	return &CartDTO{
		ID:             c.ID,
		TelegramUserID: c.TelegramUserID,
		Items:          items,
		TotalAmount:    c.TotalAmount,
		TotalDiscount:  c.TotalDiscount,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
