package discounts

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

// Repository reads discount rules.
type Repository struct {
	db *gorm.DB
}

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

// ListActive returns active rules ordered by ascending threshold.
func (r *Repository) ListActive(ctx context.Context) ([]models.Discount, error) {
	var rows []models.Discount
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("min_quantity_tons ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of stored rules.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Discount{}).Count(&n).Error
	return n, err
}

// CreateBatch inserts rules.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.Discount) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}
