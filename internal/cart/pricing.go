package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tubeshop-backend/internal/discounts"
	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// Recalculate refreshes every line from its product's live price and the
// discount rules, then rebuilds the cart totals. Lines whose product is not
// loaded are left untouched and excluded from the totals.
func Recalculate(cart *models.Cart, rules []models.Discount) {
	totalAmount := zero
	totalDiscount := zero

	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Product == nil {
			continue
		}
		discountAmount := priceLine(item, item.Product, rules)
		totalAmount = totalAmount.Add(item.TotalPrice)
		totalDiscount = totalDiscount.Add(discountAmount)
	}

	cart.TotalAmount = totalAmount
	cart.TotalDiscount = totalDiscount
}

// priceLine sets unit price, discount and total of the line and returns the
// discount amount. Amounts keep full precision so cart totals equal the sum
// of the lines exactly.
func priceLine(item *models.CartItem, product *models.Product, rules []models.Discount) decimal.Decimal {
	item.UnitPrice = product.PricePerTon
	item.DiscountPercent = discounts.SelectPercent(rules, item.QuantityTons, product.ProductType, product.Warehouse)

	base := item.QuantityTons.Mul(item.UnitPrice)
	discountAmount := base.Mul(item.DiscountPercent).Div(hundred)
	item.TotalPrice = base.Sub(discountAmount)
	return discountAmount
}
