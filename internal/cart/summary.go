package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
)

// Pricing holds the delivery fee rule shown at checkout.
type Pricing struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
}

func PricingFromConfig(cfg config.MarketplaceConfig) Pricing {
	return Pricing{FreeDeliveryThreshold: cfg.FreeDeliveryThreshold, DeliveryFee: cfg.DeliveryFee}
}

// Summary totals a cart. Delivery is free strictly above the threshold.
type Summary struct {
	ItemCount   int             `json:"itemCount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

func (p Pricing) Summarize(items []models.CartItem) Summary {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	subtotal := models.SumLines(items)
	fee := decimal.Zero
	if count > 0 && !subtotal.GreaterThan(p.FreeDeliveryThreshold) {
		fee = p.DeliveryFee
	}
	return Summary{
		ItemCount:   count,
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
	}
}

// View is a customer's cart with its totals.
type View struct {
	Items   []models.CartItem `json:"items"`
	Summary Summary           `json:"summary"`
}
