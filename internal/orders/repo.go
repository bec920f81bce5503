package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&order.Items).Error
}

func (r *repository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items.Product")
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, telegramUserID int64) ([]models.Order, error) {
	var orders []models.Order
	err := r.withItems(ctx).
		Where("telegram_user_id = ?", telegramUserID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindLatestByUser(ctx context.Context, telegramUserID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("telegram_user_id = ?", telegramUserID).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, processedAt *time.Time) error {
	updates := map[string]any{"status": status}
	if processedAt != nil {
		updates["processed_at"] = *processedAt
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
