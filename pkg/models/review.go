package models

import "time"

type Review struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Images       []string  `json:"images,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Helpful      int       `json:"helpful"`
}
