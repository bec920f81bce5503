package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the single shopping cart owned by a Telegram user.
// TotalAmount and TotalDiscount are derived from Items on every mutation.
type Cart struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TelegramUserID int64           `gorm:"column:telegram_user_id;not null;uniqueIndex:idx_carts_telegram_user"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(24,9);not null"`
	TotalDiscount  decimal.Decimal `gorm:"column:total_discount;type:numeric(24,9);not null"`
	Items          []CartItem      `gorm:"foreignKey:CartID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
