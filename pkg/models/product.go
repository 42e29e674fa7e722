package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             string          `json:"id"`
	FarmerID       string          `json:"farmerId"`
	FarmerName     string          `json:"farmerName"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Price          decimal.Decimal `json:"price"`
	Unit           string          `json:"unit"`
	Description    string          `json:"description"`
	Image          string          `json:"image"`
	Inventory      int             `json:"inventory"`
	Location       string          `json:"location"`
	Organic        bool            `json:"organic"`
	Rating         float64         `json:"rating"`
	Reviews        int             `json:"reviews"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	IsAvailable    bool            `json:"isAvailable"`
	HarvestDate    *time.Time      `json:"harvestDate,omitempty"`
	ExpiryDate     *time.Time      `json:"expiryDate,omitempty"`
	NutritionInfo  string          `json:"nutritionInfo,omitempty"`
	Certifications []string        `json:"certifications"`
}
