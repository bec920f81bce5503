package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/internal/conversion"
	product "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type discountRules interface {
	ActiveRules(ctx context.Context) ([]models.Discount, error)
}

// Service exposes cart operations keyed by Telegram user.
type Service interface {
	GetOrCreate(ctx context.Context, telegramUserID int64) (*CartDTO, error)
	// Get returns nil when the user has no cart.
	Get(ctx context.Context, telegramUserID int64) (*CartDTO, error)
	AddItem(ctx context.Context, input AddItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, meters, tons *decimal.Decimal) (*CartDTO, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, telegramUserID int64) error
}

type service struct {
	repo      *Repository
	products  *product.Repository
	discounts discountRules
	tx        txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, products *product.Repository, discounts discountRules, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount rules required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, discounts: discounts, tx: tx}, nil
}

func (s *service) GetOrCreate(ctx context.Context, telegramUserID int64) (*CartDTO, error) {
	if telegramUserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telegram user id is required")
	}
	cart, err := s.getOrCreate(ctx, s.repo, telegramUserID)
	if err != nil {
		return nil, err
	}
	return FromModel(cart), nil
}

func (s *service) getOrCreate(ctx context.Context, repo *Repository, telegramUserID int64) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, telegramUserID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart = &models.Cart{TelegramUserID: telegramUserID, TotalAmount: zero, TotalDiscount: zero}
	if err := repo.Create(ctx, cart); err != nil {
		if db.IsUniqueViolation(err, "") {
			// created concurrently by another request
			if existing, findErr := repo.FindByUser(ctx, telegramUserID); findErr == nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

func (s *service) Get(ctx context.Context, telegramUserID int64) (*CartDTO, error) {
	cart, err := s.repo.FindByUser(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return FromModel(cart), nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*CartDTO, error) {
	if input.TelegramUserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telegram user id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.PreferredUnit != nil && !input.PreferredUnit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preferred unit must be meters or tons")
	}

	rules, err := s.discounts.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		p, err := s.products.WithTx(tx).FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		qty, err := conversion.Resolve(p, input.QuantityMeters, input.QuantityTons)
		if err != nil {
			return err
		}
		unit := qty.Unit
		if input.PreferredUnit != nil {
			unit = *input.PreferredUnit
		}
		if qty.Tons.GreaterThan(p.AvailableStockTons) {
			return insufficientStock(p, qty.Tons)
		}

		cart, err := s.getOrCreate(ctx, repo, input.TelegramUserID)
		if err != nil {
			return err
		}

		var existing *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == p.ID {
				existing = &cart.Items[i]
				break
			}
		}

		if existing != nil {
			existing.QuantityMeters = existing.QuantityMeters.Add(qty.Meters)
			existing.QuantityTons = existing.QuantityTons.Add(qty.Tons)
			existing.PreferredUnit = unit
			existing.Product = p
		} else {
			item := models.CartItem{
				CartID:         cart.ID,
				ProductID:      p.ID,
				QuantityMeters: qty.Meters,
				QuantityTons:   qty.Tons,
				PreferredUnit:  unit,
				UnitPrice:      p.PricePerTon,
			}
			priceLine(&item, p, rules)
			if err := repo.CreateItem(ctx, &item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
			item.Product = p
			cart.Items = append(cart.Items, item)
		}

		if err := s.persistRecalculated(ctx, repo, cart, rules); err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, meters, tons *decimal.Decimal) (*CartDTO, error) {
	rules, err := s.discounts.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := s.findItem(ctx, repo, itemID)
		if err != nil {
			return err
		}
		if item.Product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		qty, err := conversion.Resolve(item.Product, meters, tons)
		if err != nil {
			return err
		}
		if qty.Tons.GreaterThan(item.Product.AvailableStockTons) {
			return insufficientStock(item.Product, qty.Tons)
		}

		item.QuantityMeters = qty.Meters
		item.QuantityTons = qty.Tons
		item.PreferredUnit = qty.Unit
		if err := repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}

		cart, err := repo.FindByID(ctx, item.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := s.persistRecalculated(ctx, repo, cart, rules); err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) RemoveItem(ctx context.Context, itemID uuid.UUID) (*CartDTO, error) {
	rules, err := s.discounts.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := s.findItem(ctx, repo, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}

		cart, err := repo.FindByID(ctx, item.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := s.persistRecalculated(ctx, repo, cart, rules); err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

func (s *service) Clear(ctx context.Context, telegramUserID int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, telegramUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := repo.Clear(ctx, cart); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
}

func (s *service) findItem(ctx context.Context, repo *Repository, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

// persistRecalculated reprices every line and saves lines and totals.
func (s *service) persistRecalculated(ctx context.Context, repo *Repository, cart *models.Cart, rules []models.Discount) error {
	Recalculate(cart, rules)
	for i := range cart.Items {
		if cart.Items[i].Product == nil {
			continue
		}
		if err := repo.SaveItem(ctx, &cart.Items[i]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
	}
	if err := repo.SaveTotals(ctx, cart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart totals")
	}
	return nil
}

// StockShortage is attached as details to insufficient stock errors.
type StockShortage struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductType   string          `json:"product_type"`
	RequestedTons decimal.Decimal `json:"requested_tons"`
	AvailableTons decimal.Decimal `json:"available_tons"`
}

func insufficientStock(p *models.Product, requested decimal.Decimal) error {
	msg := fmt.Sprintf("insufficient stock: available %s t", p.AvailableStockTons.String())
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).WithDetails(StockShortage{
		ProductID:     p.ID,
		ProductType:   p.ProductType,
		RequestedTons: requested,
		AvailableTons: p.AvailableStockTons,
	})
}
