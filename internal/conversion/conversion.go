// Package conversion translates pipe quantities between meters and tons.
package conversion

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
)

const (
	meterPlaces = 2
	tonPlaces   = 3
)

var kgPerTon = decimal.NewFromInt(1000)

// Quantities is one physical amount expressed in both units.
type Quantities struct {
	Meters decimal.Decimal
	Tons   decimal.Decimal
	Unit   enums.QuantityUnit
}

// TonsPerMeter returns the conversion ratio for the product. The catalog
// weight wins; otherwise the ratio is inferred from current stock.
func TonsPerMeter(p *models.Product) (decimal.Decimal, error) {
	if p == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "no data to compute conversion")
	}
	if p.WeightPerMeter.IsPositive() {
		return p.WeightPerMeter.Div(kgPerTon), nil
	}
	if p.AvailableStockMeters.IsPositive() {
		return p.AvailableStockTons.Div(p.AvailableStockMeters), nil
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "no data to compute conversion")
}

// NormalizeMeters rounds to centimeters; non-positive input becomes zero.
func NormalizeMeters(m decimal.Decimal) decimal.Decimal {
	if !m.IsPositive() {
		return decimal.Zero
	}
	return m.Round(meterPlaces)
}

// NormalizeTons rounds to kilograms; non-positive input becomes zero.
func NormalizeTons(t decimal.Decimal) decimal.Decimal {
	if !t.IsPositive() {
		return decimal.Zero
	}
	return t.Round(tonPlaces)
}

// MetersToTons converts a length of the product into its mass.
func MetersToTons(p *models.Product, meters decimal.Decimal) (decimal.Decimal, error) {
	meters = NormalizeMeters(meters)
	if meters.IsZero() {
		return decimal.Zero, nil
	}
	ratio, err := TonsPerMeter(p)
	if err != nil {
		return decimal.Zero, err
	}
	return meters.Mul(ratio).Round(tonPlaces), nil
}

// TonsToMeters converts a mass of the product into its length.
func TonsToMeters(p *models.Product, tons decimal.Decimal) (decimal.Decimal, error) {
	tons = NormalizeTons(tons)
	if tons.IsZero() {
		return decimal.Zero, nil
	}
	ratio, err := TonsPerMeter(p)
	if err != nil {
		return decimal.Zero, err
	}
	if !ratio.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "no data to compute conversion")
	}
	return tons.Div(ratio).Round(meterPlaces), nil
}

// Resolve fills in both units from whichever one the caller supplied.
// Meters take priority when both are positive.
func Resolve(p *models.Product, meters, tons *decimal.Decimal) (Quantities, error) {
	switch {
	case meters != nil && meters.IsPositive():
		m := NormalizeMeters(*meters)
		t, err := MetersToTons(p, m)
		if err != nil {
			return Quantities{}, err
		}
		return Quantities{Meters: m, Tons: t, Unit: enums.QuantityUnitMeters}, nil
	case tons != nil && tons.IsPositive():
		t := NormalizeTons(*tons)
		m, err := TonsToMeters(p, t)
		if err != nil {
			return Quantities{}, err
		}
		return Quantities{Meters: m, Tons: t, Unit: enums.QuantityUnitTons}, nil
	default:
		return Quantities{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity in meters or tons must be positive")
	}
}
