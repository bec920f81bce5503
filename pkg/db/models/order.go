package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
)

// Order is a checkout snapshot. Only Status and ProcessedAt change after creation.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TelegramUserID  int64             `gorm:"column:telegram_user_id;not null;index:idx_orders_user_created,priority:1"`
	OrderNumber     string            `gorm:"column:order_number;type:varchar(50);not null;uniqueIndex:idx_orders_order_number"`
	CustomerName    string            `gorm:"column:customer_name;type:varchar(200);not null"`
	CustomerPhone   string            `gorm:"column:customer_phone;type:varchar(50);not null"`
	CustomerEmail   *string           `gorm:"column:customer_email;type:varchar(200)"`
	INN             *string           `gorm:"column:inn;type:varchar(20)"`
	CompanyName     *string           `gorm:"column:company_name;type:varchar(300)"`
	DeliveryAddress *string           `gorm:"column:delivery_address;type:varchar(500)"`
	Comment         *string           `gorm:"column:comment;type:text"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(24,9);not null"`
	TotalDiscount   decimal.Decimal   `gorm:"column:total_discount;type:numeric(24,9);not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;default:'new'"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time         `gorm:"column:created_at;not null;index:idx_orders_user_created,priority:2"`
	ProcessedAt     *time.Time        `gorm:"column:processed_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return nil
}
