package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem is an immutable copy of a cart line taken at checkout.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Product         *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	QuantityMeters  decimal.Decimal `gorm:"column:quantity_meters;type:numeric(18,2);not null"`
	QuantityTons    decimal.Decimal `gorm:"column:quantity_tons;type:numeric(18,3);not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	TotalPrice      decimal.Decimal `gorm:"column:total_price;type:numeric(24,9);not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
