package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByUser(ctx context.Context, telegramUserID int64) ([]models.Order, error)
	FindLatestByUser(ctx context.Context, telegramUserID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, processedAt *time.Time) error
}

// Notifier is told about every committed order. Implementations must not block.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
}
