package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
)

// CartItem is one product line in a cart. QuantityMeters and QuantityTons
// describe the same physical amount.
type CartItem struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID          `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID       uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Product         *Product           `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	QuantityMeters  decimal.Decimal    `gorm:"column:quantity_meters;type:numeric(18,2);not null"`
	QuantityTons    decimal.Decimal    `gorm:"column:quantity_tons;type:numeric(18,3);not null"`
	PreferredUnit   enums.QuantityUnit `gorm:"column:preferred_unit;type:varchar(10);not null;default:'meters'"`
	UnitPrice       decimal.Decimal    `gorm:"column:unit_price;type:numeric(18,2);not null"`
	DiscountPercent decimal.Decimal    `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	TotalPrice      decimal.Decimal    `gorm:"column:total_price;type:numeric(24,9);not null"`
	AddedAt         time.Time          `gorm:"column:added_at;not null"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.AddedAt.IsZero() {
		i.AddedAt = time.Now().UTC()
	}
	return nil
}
