package enums

import (
	"fmt"
	"strings"
)

// QuantityUnit is the unit a buyer last edited a cart line in.
type QuantityUnit string

const (
	QuantityUnitMeters QuantityUnit = "meters"
	QuantityUnitTons   QuantityUnit = "tons"
)

var validQuantityUnits = []QuantityUnit{
	QuantityUnitMeters,
	QuantityUnitTons,
}

// String implements fmt.Stringer.
func (u QuantityUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known QuantityUnit.
func (u QuantityUnit) IsValid() bool {
	for _, candidate := range validQuantityUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseQuantityUnit converts raw input into a QuantityUnit.
func ParseQuantityUnit(value string) (QuantityUnit, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validQuantityUnits {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity unit %q", value)
}
