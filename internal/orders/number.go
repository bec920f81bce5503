package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	orderNumberLayout = "20060102150405"
	suffixMin         = 1000
	// suffixes run 1000 to 9998 inclusive, the range storefront order numbers have always used.
	suffixSpan = 8999
)

// NewOrderNumber formats ORD-<utc timestamp>-<suffix>. Uniqueness is left to
// the orders.order_number index.
func NewOrderNumber(now time.Time) string {
	return formatOrderNumber(now, rand.IntN(suffixSpan))
}

func formatOrderNumber(now time.Time, offset int) string {
	return fmt.Sprintf("ORD-%s-%d", now.UTC().Format(orderNumberLayout), suffixMin+offset)
}
