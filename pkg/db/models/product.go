package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a steel pipe position held at one warehouse.
type Product struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Warehouse            string          `gorm:"column:warehouse;type:varchar(200);not null;index:idx_products_catalog_order,priority:1"`
	ProductType          string          `gorm:"column:product_type;type:varchar(200);not null;index:idx_products_catalog_order,priority:2"`
	Diameter             decimal.Decimal `gorm:"column:diameter;type:numeric(10,2);not null;index:idx_products_catalog_order,priority:3"`
	WallThickness        decimal.Decimal `gorm:"column:wall_thickness;type:numeric(10,2);not null"`
	GOST                 string          `gorm:"column:gost;type:varchar(100);not null"`
	SteelGrade           string          `gorm:"column:steel_grade;type:varchar(100);not null"`
	PricePerTon          decimal.Decimal `gorm:"column:price_per_ton;type:numeric(18,2);not null"`
	WeightPerMeter       decimal.Decimal `gorm:"column:weight_per_meter;type:numeric(18,3);not null"`
	AvailableStockTons   decimal.Decimal `gorm:"column:available_stock_tons;type:numeric(18,2);not null"`
	AvailableStockMeters decimal.Decimal `gorm:"column:available_stock_meters;type:numeric(18,2);not null"`
	SKU                  *string         `gorm:"column:sku;type:varchar(100);uniqueIndex:idx_products_sku"`
	LastPriceUpdate      time.Time       `gorm:"column:last_price_update;not null"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// SKUValue returns the SKU or an empty string.
func (p *Product) SKUValue() string {
	if p == nil || p.SKU == nil {
		return ""
	}
	return *p.SKU
}
