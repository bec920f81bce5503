package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
)

func TestRecalculateKeepsFullPrecision(t *testing.T) {
	product := &models.Product{ID: uuid.New(), ProductType: "Electric-welded pipe", Warehouse: "Moscow", PricePerTon: d("100")}
	cart := &models.Cart{Items: []models.CartItem{
		{ID: uuid.New(), ProductID: product.ID, Product: product, QuantityTons: d("0.001")},
		{ID: uuid.New(), ProductID: product.ID, Product: product, QuantityTons: d("0.001")},
	}}
	rules := []models.Discount{{MinQuantityTons: d("0"), DiscountPercent: d("5"), IsActive: true}}

	Recalculate(cart, rules)

	for _, it := range cart.Items {
		assert.True(t, it.DiscountPercent.Equal(d("5")))
		assert.True(t, it.TotalPrice.Equal(d("0.095")), it.TotalPrice.String())
	}
	assert.True(t, cart.TotalDiscount.Equal(d("0.01")), cart.TotalDiscount.String())
	assert.True(t, cart.TotalAmount.Equal(d("0.19")), cart.TotalAmount.String())
}

func TestRecalculateSumsUnroundedLines(t *testing.T) {
	product := &models.Product{ID: uuid.New(), ProductType: "Seamless pipe", Warehouse: "Moscow", PricePerTon: d("81234.57")}
	cart := &models.Cart{Items: []models.CartItem{
		{ID: uuid.New(), ProductID: product.ID, Product: product, QuantityTons: d("2.999")},
		{ID: uuid.New(), ProductID: product.ID, Product: product, QuantityTons: d("3.421")},
	}}
	rules := []models.Discount{{MinQuantityTons: d("3"), DiscountPercent: d("2.5"), IsActive: true}}

	Recalculate(cart, rules)

	// 2.999 t: no tier, 243622.47543
	// 3.421 t: 277903.46397 base, 6947.58659925 off
	assert.True(t, cart.Items[0].TotalPrice.Equal(d("243622.47543")), cart.Items[0].TotalPrice.String())
	assert.True(t, cart.Items[1].TotalPrice.Equal(d("270955.87737075")), cart.Items[1].TotalPrice.String())
	assert.True(t, cart.TotalDiscount.Equal(d("6947.58659925")), cart.TotalDiscount.String())
	assert.True(t, cart.TotalAmount.Equal(d("514578.35280075")), cart.TotalAmount.String())
}
