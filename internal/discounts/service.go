// Package discounts resolves tonnage discount tiers.
package discounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
)

// Service exposes discount lookups to the cart and the API.
type Service interface {
	// Resolve returns the percent that applies to a line of the given size and scope.
	Resolve(ctx context.Context, tons decimal.Decimal, productType, warehouse string) (decimal.Decimal, error)
	// ActiveRules returns active rules ordered by ascending threshold.
	ActiveRules(ctx context.Context) ([]models.Discount, error)
	ListActive(ctx context.Context) ([]DiscountDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{repo: repo}, nil
}

// DiscountDTO is the public shape of a rule.
type DiscountDTO struct {
	ID              uuid.UUID       `json:"id"`
	MinQuantityTons decimal.Decimal `json:"min_quantity_tons"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	ProductType     *string         `json:"product_type"`
	Warehouse       *string         `json:"warehouse"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (s *service) Resolve(ctx context.Context, tons decimal.Decimal, productType, warehouse string) (decimal.Decimal, error) {
	rules, err := s.ActiveRules(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return SelectPercent(rules, tons, productType, warehouse), nil
}

func (s *service) ActiveRules(ctx context.Context) ([]models.Discount, error) {
	rules, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}
	return rules, nil
}

func (s *service) ListActive(ctx context.Context) ([]DiscountDTO, error) {
	rules, err := s.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DiscountDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, DiscountDTO{
			ID:              r.ID,
			MinQuantityTons: r.MinQuantityTons,
			DiscountPercent: r.DiscountPercent,
			ProductType:     r.ProductType,
			Warehouse:       r.Warehouse,
			IsActive:        r.IsActive,
			CreatedAt:       r.CreatedAt,
		})
	}
	return out, nil
}

// SelectPercent picks the highest percent among active rules whose threshold
// is met and whose scope is unset or equal. The threshold itself does not
// break ties, so a broad rule can beat a narrower one.
func SelectPercent(rules []models.Discount, tons decimal.Decimal, productType, warehouse string) decimal.Decimal {
	best := decimal.Zero
	for _, r := range rules {
		if !r.IsActive || r.MinQuantityTons.GreaterThan(tons) {
			continue
		}
		if r.ProductType != nil && *r.ProductType != productType {
			continue
		}
		if r.Warehouse != nil && *r.Warehouse != warehouse {
			continue
		}
		if r.DiscountPercent.GreaterThan(best) {
			best = r.DiscountPercent
		}
	}
	return best
}
