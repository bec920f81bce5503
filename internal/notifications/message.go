package notifications

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

const orderDateLayout = "02.01.2006 15:04"

// RenderOrderConfirmation builds the HTML confirmation sent to the buyer.
func RenderOrderConfirmation(order *models.Order) string {
	var b strings.Builder

	b.WriteString("🎉 <b>Your order has been placed!</b>\n\n")
	line(&b, "📋", "Order number", order.OrderNumber)
	line(&b, "📅", "Date", order.CreatedAt.UTC().Format(orderDateLayout))
	line(&b, "👤", "Customer", order.CustomerName)
	line(&b, "📞", "Phone", order.CustomerPhone)
	optionalLine(&b, "📧", "Email", order.CustomerEmail)
	optionalLine(&b, "🏢", "INN", order.INN)
	optionalLine(&b, "🚚", "Delivery address", order.DeliveryAddress)

	b.WriteString("\n📦 <b>Items:</b>\n")
	for _, item := range order.Items {
		name := "Item"
		diameter := decimal.Zero
		if item.Product != nil {
			name = item.Product.ProductType
			diameter = item.Product.Diameter
		}
		fmt.Fprintf(&b, "• %s (%s mm)\n", html.EscapeString(name), diameter.String())
		if item.QuantityMeters.IsPositive() {
			fmt.Fprintf(&b, "  └ %s m\n", item.QuantityMeters.StringFixed(1))
		}
		if item.QuantityTons.IsPositive() {
			fmt.Fprintf(&b, "  └ %s t\n", item.QuantityTons.StringFixed(2))
		}
		fmt.Fprintf(&b, "  └ %s\n", FormatMoney(item.TotalPrice))
	}
	b.WriteString("\n")

	if order.TotalDiscount.IsPositive() {
		line(&b, "💰", "Discount", FormatMoney(order.TotalDiscount))
	}
	line(&b, "💳", "Total", FormatMoney(order.TotalAmount))

	if order.Comment != nil && strings.TrimSpace(*order.Comment) != "" {
		b.WriteString("\n")
		line(&b, "💬", "Comment", *order.Comment)
	}

	b.WriteString("\n📞 Our manager will contact you to confirm the details.\n")
	b.WriteString("Thank you for your order! 🙏")
	return b.String()
}

func line(b *strings.Builder, icon, label, value string) {
	fmt.Fprintf(b, "%s <b>%s:</b> %s\n", icon, label, html.EscapeString(value))
}

func optionalLine(b *strings.Builder, icon, label string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	line(b, icon, label, *value)
}

// FormatMoney renders a whole-ruble amount with space-grouped thousands,
// e.g. "926 250 ₽".
func FormatMoney(amount decimal.Decimal) string {
	digits := amount.Abs().Round(0).String()
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteRune(r)
	}
	sign := ""
	if amount.Round(0).IsNegative() {
		sign = "-"
	}
	return sign + grouped.String() + " ₽"
}
