package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one (customer, product) line; Product is the snapshot taken when
// the line was last touched.
type CartItem struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	ProductID  string    `json:"productId"`
	Product    Product   `json:"product"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"addedAt"`
}

// LineTotal is unit price times quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// SumLines totals a set of lines.
func SumLines(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
