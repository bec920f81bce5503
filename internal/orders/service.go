package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/internal/cart"
	product "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines checkout and order lookups.
type Service interface {
	CreateFromCart(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	GetByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error)
	ListByUser(ctx context.Context, telegramUserID int64) ([]OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	// Profile returns nil when the user has never ordered.
	Profile(ctx context.Context, telegramUserID int64) (*ProfileDTO, error)
}

type service struct {
	repo       Repository
	carts      *cart.Repository
	products   *product.Repository
	tx         txRunner
	notifier   Notifier
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
	guardStock bool
	now        func() time.Time
}

type Option func(*service)

// WithGuardStock makes the stock decrement conditional on the remaining tons,
// so concurrent checkouts cannot oversell.
func WithGuardStock(enabled bool) Option {
	return func(s *service) {
		s.guardStock = enabled
	}
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, carts *cart.Repository, products *product.Repository, tx txRunner, notifier Notifier, logg *logger.Logger, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		repo:     repo,
		carts:    carts,
		products: products,
		tx:       tx,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) CreateFromCart(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.TelegramUserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telegram user id is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.CustomerPhone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}

	ctx = s.logg.WithTelegramUserID(ctx, input.TelegramUserID)

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)

		c, err := carts.FindByUser(ctx, input.TelegramUserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if c == nil || len(c.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		for i := range c.Items {
			item := &c.Items[i]
			if item.Product == nil {
				continue
			}
			live, err := products.FindByID(ctx, item.ProductID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if live == nil || live.AvailableStockTons.LessThan(item.QuantityTons) {
				return stockError(live, item.QuantityTons)
			}
			item.Product = live
		}

		order = &models.Order{
			TelegramUserID:  input.TelegramUserID,
			OrderNumber:     NewOrderNumber(s.now()),
			CustomerName:    strings.TrimSpace(input.CustomerName),
			CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
			CustomerEmail:   input.CustomerEmail,
			INN:             input.CustomerINN,
			CompanyName:     input.CompanyName,
			DeliveryAddress: input.DeliveryAddress,
			Comment:         input.Comment,
			TotalAmount:     c.TotalAmount,
			TotalDiscount:   c.TotalDiscount,
			Status:          enums.OrderStatusNew,
			CreatedAt:       s.now().UTC(),
		}
		for _, item := range c.Items {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:       item.ProductID,
				QuantityMeters:  item.QuantityMeters,
				QuantityTons:    item.QuantityTons,
				UnitPrice:       item.UnitPrice,
				DiscountPercent: item.DiscountPercent,
				TotalPrice:      item.TotalPrice,
			})
		}

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "idx_orders_order_number") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, item := range c.Items {
			if err := s.decrementStock(ctx, products, &item); err != nil {
				return err
			}
		}

		if err := carts.Clear(ctx, c); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		s.rejected(ctx, err)
		return nil, err
	}

	s.metrics.IncCreated()
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(ctx, "order created")

	saved, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	s.notifier.OrderCreated(context.WithoutCancel(ctx), saved)
	return FromModel(saved), nil
}

func (s *service) decrementStock(ctx context.Context, products *product.Repository, item *models.CartItem) error {
	if !s.guardStock {
		if err := products.DecrementStock(ctx, item.ProductID, item.QuantityTons, item.QuantityMeters); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		return nil
	}
	ok, err := products.DecrementStockIfAvailable(ctx, item.ProductID, item.QuantityTons, item.QuantityMeters)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if !ok {
		live, _ := products.FindByID(ctx, item.ProductID)
		return stockError(live, item.QuantityTons)
	}
	return nil
}

func (s *service) rejected(ctx context.Context, err error) {
	reason := "error"
	if typed := pkgerrors.As(err); typed != nil {
		reason = string(typed.Code())
	}
	s.metrics.IncRejected(reason)
	s.logg.Warn(s.logg.WithField(ctx, "reason", reason), "checkout rejected")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) ListByUser(ctx context.Context, telegramUserID int64) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, telegramUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// UpdateStatus sets any status from any status. Processing and Confirmed
// stamp processed_at; later transitions keep the stamp.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var processedAt *time.Time
	if status.MarksProcessed() {
		at := s.now().UTC()
		processedAt = &at
	}
	if err := s.repo.UpdateStatus(ctx, id, status, processedAt); err != nil {
		return nil, notFoundOr(err, "update order status")
	}
	return s.Get(ctx, id)
}

func (s *service) Profile(ctx context.Context, telegramUserID int64) (*ProfileDTO, error) {
	order, err := s.repo.FindLatestByUser(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest order")
	}
	return profileFromModel(order), nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

// StockShortage is attached to checkout stock errors.
type StockShortage struct {
	ProductID     uuid.UUID       `json:"product_id,omitempty"`
	ProductType   string          `json:"product_type"`
	RequiredTons  decimal.Decimal `json:"required_tons"`
	AvailableTons decimal.Decimal `json:"available_tons"`
}

func stockError(live *models.Product, required decimal.Decimal) error {
	shortage := StockShortage{RequiredTons: required, AvailableTons: decimal.Zero}
	if live != nil {
		shortage.ProductID = live.ID
		shortage.ProductType = live.ProductType
		shortage.AvailableTons = live.AvailableStockTons
	}
	msg := fmt.Sprintf("insufficient stock of %q: required %s t, available %s t",
		shortage.ProductType, required.String(), shortage.AvailableTons.String())
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).WithDetails(shortage)
}
