package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
)

// CreateOrderInput carries the customer details captured at checkout.
type CreateOrderInput struct {
	TelegramUserID  int64
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	CustomerINN     *string
	DeliveryAddress *string
	CompanyName     *string
	Comment         *string
}

type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	TelegramUserID  int64             `json:"telegram_user_id"`
	OrderNumber     string            `json:"order_number"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   *string           `json:"customer_email,omitempty"`
	CustomerINN     *string           `json:"customer_inn,omitempty"`
	CompanyName     *string           `json:"company_name,omitempty"`
	DeliveryAddress *string           `json:"delivery_address,omitempty"`
	Comment         *string           `json:"comment,omitempty"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	TotalDiscount   decimal.Decimal   `json:"total_discount"`
	Status          enums.OrderStatus `json:"status"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
}

type OrderItemDTO struct {
	ID              uuid.UUID           `json:"id"`
	ProductID       uuid.UUID           `json:"product_id"`
	Product         *product.ProductDTO `json:"product,omitempty"`
	QuantityMeters  decimal.Decimal     `json:"quantity_meters"`
	QuantityTons    decimal.Decimal     `json:"quantity_tons"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	DiscountPercent decimal.Decimal     `json:"discount_percent"`
	TotalPrice      decimal.Decimal     `json:"total_price"`
}

// ProfileDTO is the contact data of the user's most recent order.
type ProfileDTO struct {
	TelegramUserID  int64     `json:"telegram_user_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerEmail   *string   `json:"customer_email,omitempty"`
	CustomerINN     *string   `json:"customer_inn,omitempty"`
	DeliveryAddress *string   `json:"delivery_address,omitempty"`
	CompanyName     *string   `json:"company_name,omitempty"`
	LastOrderAt     time.Time `json:"last_order_at"`
	HasOrders       bool      `json:"has_orders"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		items = append(items, OrderItemDTO{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Product:         product.FromModel(it.Product),
			QuantityMeters:  it.QuantityMeters,
			QuantityTons:    it.QuantityTons,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TotalPrice:      it.TotalPrice,
		})
	}
	return &OrderDTO{
		ID:              o.ID,
		TelegramUserID:  o.TelegramUserID,
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerEmail:   o.CustomerEmail,
		CustomerINN:     o.INN,
		CompanyName:     o.CompanyName,
		DeliveryAddress: o.DeliveryAddress,
		Comment:         o.Comment,
		TotalAmount:     o.TotalAmount,
		TotalDiscount:   o.TotalDiscount,
		Status:          o.Status,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		ProcessedAt:     o.ProcessedAt,
	}
}

func profileFromModel(o *models.Order) *ProfileDTO {
	return &ProfileDTO{
		TelegramUserID:  o.TelegramUserID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerEmail:   o.CustomerEmail,
		CustomerINN:     o.INN,
		DeliveryAddress: o.DeliveryAddress,
		CompanyName:     o.CompanyName,
		LastOrderAt:     o.CreatedAt,
		HasOrders:       true,
	}
}
