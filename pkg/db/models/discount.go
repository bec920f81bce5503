package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Discount grants a percent off once a line reaches MinQuantityTons.
// Nil ProductType or Warehouse means the rule applies to every value.
type Discount struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	MinQuantityTons decimal.Decimal `gorm:"column:min_quantity_tons;type:numeric(18,3);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	ProductType     *string         `gorm:"column:product_type;type:varchar(200)"`
	Warehouse       *string         `gorm:"column:warehouse;type:varchar(200)"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (d *Discount) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
