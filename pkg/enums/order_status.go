package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusProcessing,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// MarksProcessed reports whether moving into this status stamps the processed time.
func (s OrderStatus) MarksProcessed() bool {
	return s == OrderStatusProcessing || s == OrderStatusConfirmed
}

// ParseOrderStatus converts raw input into an OrderStatus. Matching is case-insensitive
// and also accepts the numeric codes 0-5 used by older clients.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for i, candidate := range validOrderStatuses {
		if string(candidate) == normalized || fmt.Sprint(i) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
