package dbtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

// DemoPipe returns the electric-welded pipe used across the catalog tests:
// 4.74 kg/m at 65000 per ton with 150 t / 31646 m in stock.
func DemoPipe() *models.Product {
	sku := "TUBE-EW-57-3.5-ST3"
	return &models.Product{
		Warehouse:            "Moscow",
		ProductType:          "Electric-welded pipe",
		Diameter:             decimal.RequireFromString("57"),
		WallThickness:        decimal.RequireFromString("3.5"),
		GOST:                 "GOST 10704-91",
		SteelGrade:           "St3",
		PricePerTon:          decimal.RequireFromString("65000"),
		WeightPerMeter:       decimal.RequireFromString("4.74"),
		AvailableStockTons:   decimal.RequireFromString("150"),
		AvailableStockMeters: decimal.RequireFromString("31646"),
		SKU:                  &sku,
		LastPriceUpdate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// MustCreateProduct persists p, filling LastPriceUpdate when unset.
func MustCreateProduct(t testing.TB, conn *gorm.DB, p *models.Product) *models.Product {
	t.Helper()
	if p.LastPriceUpdate.IsZero() {
		p.LastPriceUpdate = time.Now().UTC()
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

// MustCreateDiscount persists an active rule with optional scope.
func MustCreateDiscount(t testing.TB, conn *gorm.DB, minTons, percent string, productType, warehouse *string) *models.Discount {
	t.Helper()
	d := &models.Discount{
		MinQuantityTons: decimal.RequireFromString(minTons),
		DiscountPercent: decimal.RequireFromString(percent),
		ProductType:     productType,
		Warehouse:       warehouse,
		IsActive:        true,
	}
	require.NoError(t, conn.Create(d).Error)
	return d
}
