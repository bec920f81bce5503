package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/pagination"
)

// ProductDTO is the catalog representation of a pipe position.
type ProductDTO struct {
	ID                   uuid.UUID       `json:"id"`
	SKU                  *string         `json:"sku"`
	Warehouse            string          `json:"warehouse"`
	ProductType          string          `json:"product_type"`
	Diameter             decimal.Decimal `json:"diameter"`
	WallThickness        decimal.Decimal `json:"wall_thickness"`
	GOST                 string          `json:"gost"`
	SteelGrade           string          `json:"steel_grade"`
	PricePerTon          decimal.Decimal `json:"price_per_ton"`
	WeightPerMeter       decimal.Decimal `json:"weight_per_meter"`
	AvailableStockTons   decimal.Decimal `json:"available_stock_tons"`
	AvailableStockMeters decimal.Decimal `json:"available_stock_meters"`
	LastPriceUpdate      time.Time       `json:"last_price_update"`
}

// FilterOptions bundles every value the catalog filter UI offers.
type FilterOptions struct {
	Warehouses       []string            `json:"warehouses"`
	ProductTypes     []string            `json:"product_types"`
	GOSTs            []string            `json:"gosts"`
	SteelGrades      []string            `json:"steel_grades"`
	DiameterMin      decimal.NullDecimal `json:"diameter_min"`
	DiameterMax      decimal.NullDecimal `json:"diameter_max"`
	WallThicknessMin decimal.NullDecimal `json:"wall_thickness_min"`
	WallThicknessMax decimal.NullDecimal `json:"wall_thickness_max"`
}

// ProductPage is one page of the catalog.
type ProductPage = pagination.Page[ProductDTO]

// FromModel maps a product row to its DTO.
func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:                   p.ID,
		SKU:                  p.SKU,
		Warehouse:            p.Warehouse,
		ProductType:          p.ProductType,
		Diameter:             p.Diameter,
		WallThickness:        p.WallThickness,
		GOST:                 p.GOST,
		SteelGrade:           p.SteelGrade,
		PricePerTon:          p.PricePerTon,
		WeightPerMeter:       p.WeightPerMeter,
		AvailableStockTons:   p.AvailableStockTons,
		AvailableStockMeters: p.AvailableStockMeters,
		LastPriceUpdate:      p.LastPriceUpdate,
	}
}
