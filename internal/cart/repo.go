package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC")
		}).
		Preload("Items.Product")
}

// FindByUser loads the user's cart with items and products.
func (r *Repository) FindByUser(ctx context.Context, telegramUserID int64) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withItems(ctx).First(&cart, "telegram_user_id = ?", telegramUserID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByID loads a cart with items and products.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.withItems(ctx).First(&cart, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts an empty cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error
}

// FindItem loads one cart line with its product.
func (r *Repository) FindItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Preload("Product").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a cart line without touching its product.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

// SaveItem persists every column of a cart line.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

// DeleteItem removes one cart line.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{}).Error
}

// SaveTotals writes the derived totals and bumps updated_at.
func (r *Repository) SaveTotals(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"total_amount":   cart.TotalAmount,
			"total_discount": cart.TotalDiscount,
			"updated_at":     cart.UpdatedAt,
		}).Error
}

// Clear removes every line of the cart and zeroes its totals.
func (r *Repository) Clear(ctx context.Context, cart *models.Cart) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	cart.Items = nil
	cart.TotalAmount = zero
	cart.TotalDiscount = zero
	return r.SaveTotals(ctx, cart)
}
