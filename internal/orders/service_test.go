package orders

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tubeshop-backend/internal/cart"
	"github.com/angelmondragon/tubeshop-backend/internal/discounts"
	product "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/metrics"
)

const buyer int64 = 424242

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (n *recordingNotifier) OrderCreated(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

type harness struct {
	conn     *gorm.DB
	carts    cart.Service
	orders   Service
	notifier *recordingNotifier
	registry *prometheus.Registry
	pipe     *models.Product
}

func newHarness(t *testing.T, opts ...Option) harness {
	t.Helper()
	conn := dbtest.Open(t)
	txr := db.NewFromGorm(conn)

	discountSvc, err := discounts.NewService(discounts.NewRepository(conn))
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), product.NewRepository(conn), discountSvc, txr)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	registry := prometheus.NewRegistry()
	opts = append([]Option{WithMetrics(metrics.NewCheckoutMetrics(registry))}, opts...)
	orderSvc, err := NewService(NewRepository(conn), cart.NewRepository(conn), product.NewRepository(conn), txr, notifier, logger.Nop(), opts...)
	require.NoError(t, err)

	dbtest.MustCreateDiscount(t, conn, "10", "5", nil, nil)
	pipe := dbtest.MustCreateProduct(t, conn, dbtest.DemoPipe())
	return harness{conn: conn, carts: cartSvc, orders: orderSvc, notifier: notifier, registry: registry, pipe: pipe}
}

func (h harness) addTons(t *testing.T, tons string) {
	t.Helper()
	q := decimal.RequireFromString(tons)
	_, err := h.carts.AddItem(context.Background(), cart.AddItemInput{
		TelegramUserID: buyer,
		ProductID:      h.pipe.ID,
		QuantityTons:   &q,
	})
	require.NoError(t, err)
}

func (h harness) reloadPipe(t *testing.T) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, h.conn.First(&p, "id = ?", h.pipe.ID).Error)
	return p
}

func (h harness) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

func checkoutInput() CreateOrderInput {
	email := "buyer@example.com"
	comment := "call before delivery"
	return CreateOrderInput{
		TelegramUserID: buyer,
		CustomerName:   "Ivan Petrov",
		CustomerPhone:  "+7 900 000-00-00",
		CustomerEmail:  &email,
		Comment:        &comment,
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	conn := dbtest.Open(t)
	txr := db.NewFromGorm(conn)
	n := &recordingNotifier{}

	_, err := NewService(nil, cart.NewRepository(conn), product.NewRepository(conn), txr, n, logger.Nop())
	require.Error(t, err)
	_, err = NewService(NewRepository(conn), nil, product.NewRepository(conn), txr, n, logger.Nop())
	require.Error(t, err)
	_, err = NewService(NewRepository(conn), cart.NewRepository(conn), product.NewRepository(conn), txr, nil, logger.Nop())
	require.Error(t, err)
	_, err = NewService(NewRepository(conn), cart.NewRepository(conn), product.NewRepository(conn), txr, n, nil)
	require.Error(t, err)
}

func TestCreateFromCartRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orders.CreateFromCart(ctx, checkoutInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.carts.GetOrCreate(ctx, buyer)
	require.NoError(t, err)
	_, err = h.orders.CreateFromCart(ctx, checkoutInput())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Zero(t, h.orderCount(t))
	assert.Zero(t, h.notifier.count())
	assert.Equal(t, 2.0, h.counter(t, "orders_rejected_total", string(pkgerrors.CodeValidation)))
}

func (h harness) counter(t *testing.T, name, reason string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if reason == "" || hasLabel(m, "reason", reason) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestCreateFromCartRequiresContact(t *testing.T) {
	h := newHarness(t)
	in := checkoutInput()
	in.CustomerPhone = "  "
	_, err := h.orders.CreateFromCart(context.Background(), in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateFromCartSnapshotsDecrementsAndClears(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	h := newHarness(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	h.addTons(t, "15")

	order, err := h.orders.CreateFromCart(ctx, checkoutInput())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-20260314092653-\d{4}$`), order.OrderNumber)
	assert.Equal(t, enums.OrderStatusNew, order.Status)
	assert.Equal(t, "Ivan Petrov", order.CustomerName)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("926250")))
	assert.True(t, order.TotalDiscount.Equal(decimal.RequireFromString("48750")))
	assert.Nil(t, order.ProcessedAt)
	require.Len(t, order.Items, 1)
	line := order.Items[0]
	assert.True(t, line.QuantityTons.Equal(decimal.RequireFromString("15")))
	assert.True(t, line.QuantityMeters.Equal(decimal.RequireFromString("3164.56")))
	assert.True(t, line.DiscountPercent.Equal(decimal.RequireFromString("5")))
	assert.True(t, line.TotalPrice.Equal(decimal.RequireFromString("926250")))
	require.NotNil(t, line.Product)

	pipe := h.reloadPipe(t)
	assert.True(t, pipe.AvailableStockTons.Equal(decimal.RequireFromString("135")), pipe.AvailableStockTons.String())
	metersLeft := pipe.AvailableStockMeters.Sub(decimal.RequireFromString("28481.44")).Abs()
	assert.True(t, metersLeft.LessThan(decimal.RequireFromString("0.001")), pipe.AvailableStockMeters.String())

	c, err := h.carts.Get(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.TotalAmount.IsZero())

	assert.Equal(t, 1, h.notifier.count())
	assert.Equal(t, order.OrderNumber, h.notifier.orders[0].OrderNumber)
	assert.Len(t, h.notifier.orders[0].Items, 1)
	assert.Equal(t, 1.0, h.counter(t, "orders_created_total", ""))
}

func TestCreateFromCartRevalidatesLiveStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addTons(t, "15")

	require.NoError(t, h.conn.Model(&models.Product{}).
		Where("id = ?", h.pipe.ID).
		Update("available_stock_tons", decimal.RequireFromString("10")).Error)

	_, err := h.orders.CreateFromCart(ctx, checkoutInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	msg := pkgerrors.As(err).Message()
	assert.Contains(t, msg, "Electric-welded pipe")
	assert.Contains(t, msg, "required 15 t")
	assert.Contains(t, msg, "available 10 t")

	c, err := h.carts.Get(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1, "failed checkout keeps the cart")
	assert.Zero(t, h.orderCount(t))
	assert.True(t, h.reloadPipe(t).AvailableStockTons.Equal(decimal.RequireFromString("10")))
}

func TestCreateFromCartWithGuardedDecrement(t *testing.T) {
	h := newHarness(t, WithGuardStock(true))
	h.addTons(t, "150")

	_, err := h.orders.CreateFromCart(context.Background(), checkoutInput())
	require.NoError(t, err)
	assert.True(t, h.reloadPipe(t).AvailableStockTons.IsZero())
}

func TestGetAndGetByNumber(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addTons(t, "1")
	created, err := h.orders.CreateFromCart(ctx, checkoutInput())
	require.NoError(t, err)

	byID, err := h.orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, byID.OrderNumber)
	require.Len(t, byID.Items, 1)
	assert.NotNil(t, byID.Items[0].Product)

	byNumber, err := h.orders.GetByNumber(ctx, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)

	_, err = h.orders.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = h.orders.GetByNumber(ctx, "ORD-00000000000000-0000")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = h.orders.GetByNumber(ctx, " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListByUserNewestFirstAndProfile(t *testing.T) {
	clock := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	h := newHarness(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	profile, err := h.orders.Profile(ctx, buyer)
	require.NoError(t, err)
	assert.Nil(t, profile)

	h.addTons(t, "1")
	first, err := h.orders.CreateFromCart(ctx, checkoutInput())
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	h.addTons(t, "2")
	in := checkoutInput()
	in.CustomerName = "Ivan Petrov Jr."
	inn := "7701234567"
	in.CustomerINN = &inn
	second, err := h.orders.CreateFromCart(ctx, in)
	require.NoError(t, err)

	list, err := h.orders.ListByUser(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	other, err := h.orders.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)

	profile, err = h.orders.Profile(ctx, buyer)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.True(t, profile.HasOrders)
	assert.Equal(t, "Ivan Petrov Jr.", profile.CustomerName)
	require.NotNil(t, profile.CustomerINN)
	assert.Equal(t, inn, *profile.CustomerINN)
	assert.True(t, profile.LastOrderAt.Equal(clock))
}

func TestUpdateStatusStampsProcessedAtWithoutGuard(t *testing.T) {
	clock := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	h := newHarness(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()
	h.addTons(t, "1")
	order, err := h.orders.CreateFromCart(ctx, checkoutInput())
	require.NoError(t, err)

	updated, err := h.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.Nil(t, updated.ProcessedAt)

	clock = clock.Add(30 * time.Minute)
	updated, err = h.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusProcessing)
	require.NoError(t, err)
	require.NotNil(t, updated.ProcessedAt)
	assert.True(t, updated.ProcessedAt.Equal(clock))

	updated, err = h.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, updated.ProcessedAt, "processed_at survives later transitions")

	updated, err = h.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusNew)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusNew, updated.Status)

	_, err = h.orders.UpdateStatus(ctx, order.ID, enums.OrderStatus("lost"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = h.orders.UpdateStatus(ctx, uuid.New(), enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewOrderNumberFormat(t *testing.T) {
	at := time.Date(2026, 12, 31, 23, 59, 59, 0, time.FixedZone("MSK", 3*3600))
	for range 50 {
		n := NewOrderNumber(at)
		assert.Regexp(t, `^ORD-20261231205959-[1-9]\d{3}$`, n)
	}
	assert.Equal(t, "ORD-20261231205959-1000", formatOrderNumber(at, 0))
	assert.Equal(t, "ORD-20261231205959-9998", formatOrderNumber(at, suffixSpan-1))
}
