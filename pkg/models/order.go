package models

import (
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customerId"`
	FarmerID        string              `json:"farmerId"`
	Items           []CartItem          `json:"items"`
	Total           decimal.Decimal     `json:"total"`
	Status          enums.OrderStatus   `json:"status"`
	OrderDate       time.Time           `json:"orderDate"`
	DeliveryDate    *time.Time          `json:"deliveryDate,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	DeliveryAddress string              `json:"deliveryAddress"`
	Notes           string              `json:"notes,omitempty"`
	UpdatedAt       *time.Time          `json:"updatedAt,omitempty"`
}

// HasParty reports whether userID is the buyer or the seller on the order.
func (o Order) HasParty(userID string) bool {
	return userID != "" && (o.CustomerID == userID || o.FarmerID == userID)
}
