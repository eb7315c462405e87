// Package order holds the order aggregate shared by checkout and storage.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a finalized customer order with its pricing breakdown.
// Total is always Subtotal minus Discount, floored at zero.
type Order struct {
	ID         string
	UserID     string
	Items      []Item
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	CouponCode string
	CreatedAt  time.Time
}

// Item is a single order line.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
