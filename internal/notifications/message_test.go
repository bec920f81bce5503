package notifications

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

func strp(s string) *string { return &s }

func sampleOrder() *models.Order {
	return &models.Order{
		TelegramUserID: 555,
		OrderNumber:    "ORD-20260314092653-4821",
		CustomerName:   "Ivan <Petrov>",
		CustomerPhone:  "+7 900 000-00-00",
		CustomerEmail:  strp("ivan@example.com"),
		INN:            strp(""),
		Comment:        strp("gate code 12 & 13"),
		TotalAmount:    decimal.RequireFromString("926250"),
		TotalDiscount:  decimal.RequireFromString("48750"),
		CreatedAt:      time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Items: []models.OrderItem{{
			Product: &models.Product{
				ProductType: "Electric-welded pipe",
				Diameter:    decimal.RequireFromString("57"),
			},
			QuantityMeters: decimal.RequireFromString("3164.56"),
			QuantityTons:   decimal.RequireFromString("15"),
			TotalPrice:     decimal.RequireFromString("926250"),
		}},
	}
}

func TestRenderOrderConfirmation(t *testing.T) {
	text := RenderOrderConfirmation(sampleOrder())

	assert.Contains(t, text, "<b>Order number:</b> ORD-20260314092653-4821")
	assert.Contains(t, text, "<b>Date:</b> 14.03.2026 09:26")
	assert.Contains(t, text, "Ivan &lt;Petrov&gt;")
	assert.Contains(t, text, "<b>Email:</b> ivan@example.com")
	assert.NotContains(t, text, "INN", "blank optional fields are omitted")
	assert.Contains(t, text, "• Electric-welded pipe (57 mm)")
	assert.Contains(t, text, "└ 3164.6 m")
	assert.Contains(t, text, "└ 15.00 t")
	assert.Contains(t, text, "<b>Discount:</b> 48 750 ₽")
	assert.Contains(t, text, "<b>Total:</b> 926 250 ₽")
	assert.Contains(t, text, "gate code 12 &amp; 13")
}

func TestRenderOrderConfirmationWithoutDiscountOrProduct(t *testing.T) {
	order := sampleOrder()
	order.TotalDiscount = decimal.Zero
	order.Comment = nil
	order.Items[0].Product = nil
	order.Items[0].QuantityMeters = decimal.Zero

	text := RenderOrderConfirmation(order)
	assert.NotContains(t, text, "Discount")
	assert.NotContains(t, text, "Comment")
	assert.Contains(t, text, "• Item (0 mm)")
	assert.False(t, strings.Contains(text, " m\n"), "zero meters line is skipped")
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0 ₽",
		"999":       "999 ₽",
		"1000":      "1 000 ₽",
		"308100":    "308 100 ₽",
		"1234567.5": "1 234 568 ₽",
		"-48750":    "-48 750 ₽",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}
