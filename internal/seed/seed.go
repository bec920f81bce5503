package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tubeshop-backend/internal/discounts"
	product "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

// Result reports what was inserted.
type Result struct {
	Products  int
	Discounts int
}

// DemoProducts returns the three demo catalog positions.
func DemoProducts(now time.Time) []models.Product {
	mk := func(warehouse, productType, diameter, wall, gost, grade, price, weight, tons, meters, sku string) models.Product {
		s := sku
		return models.Product{
			Warehouse:            warehouse,
			ProductType:          productType,
			Diameter:             decimal.RequireFromString(diameter),
			WallThickness:        decimal.RequireFromString(wall),
			GOST:                 gost,
			SteelGrade:           grade,
			PricePerTon:          decimal.RequireFromString(price),
			WeightPerMeter:       decimal.RequireFromString(weight),
			AvailableStockTons:   decimal.RequireFromString(tons),
			AvailableStockMeters: decimal.RequireFromString(meters),
			SKU:                  &s,
			LastPriceUpdate:      now,
		}
	}
	return []models.Product{
		mk("Yekaterinburg warehouse", "Electric-welded pipe", "57", "3.5", "GOST 10704-91", "St3sp", "65000", "4.74", "150", "31646", "TUBE-EW-57-3.5-ST3"),
		mk("Yekaterinburg warehouse", "Seamless pipe", "76", "5", "GOST 8732-78", "20", "78000", "8.86", "200", "22574", "TUBE-SM-76-5-20"),
		mk("Moscow warehouse", "Electric-welded pipe", "108", "4", "GOST 10704-91", "St3sp", "67000", "10.42", "300", "28792", "TUBE-EW-108-4-ST3"),
	}
}

// DemoDiscounts returns the demo tiers, all unscoped.
func DemoDiscounts(now time.Time) []models.Discount {
	tiers := [][2]string{{"0.01", "3"}, {"0.05", "5"}, {"0.1", "7"}, {"0.5", "10"}, {"1", "15"}}
	out := make([]models.Discount, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, models.Discount{
			MinQuantityTons: decimal.RequireFromString(tier[0]),
			DiscountPercent: decimal.RequireFromString(tier[1]),
			IsActive:        true,
			CreatedAt:       now,
		})
	}
	return out
}

// Demo fills empty product and discount tables with demo rows. Tables that
// already hold rows are left alone.
func Demo(ctx context.Context, products *product.Repository, rules *discounts.Repository, logg *logger.Logger) (Result, error) {
	var res Result
	now := time.Now().UTC()

	n, err := products.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count products: %w", err)
	}
	if n == 0 {
		rows := DemoProducts(now)
		if err := products.CreateBatch(ctx, rows); err != nil {
			return res, fmt.Errorf("seed products: %w", err)
		}
		res.Products = len(rows)
	}

	n, err = rules.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count discounts: %w", err)
	}
	if n == 0 {
		rows := DemoDiscounts(now)
		if err := rules.CreateBatch(ctx, rows); err != nil {
			return res, fmt.Errorf("seed discounts: %w", err)
		}
		res.Discounts = len(rows)
	}

	if res.Products > 0 || res.Discounts > 0 {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"products":  res.Products,
			"discounts": res.Discounts,
		}), "demo data seeded")
	}
	return res, nil
}
