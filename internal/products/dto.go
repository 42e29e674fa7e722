package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInput is a new listing.
type CreateInput struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Category       string          `json:"category" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	Unit           string          `json:"unit" validate:"required,max=20"`
	Description    string          `json:"description" validate:"max=2000"`
	Image          string          `json:"image" validate:"max=500"`
	Inventory      int             `json:"inventory" validate:"gte=0"`
	Location       string          `json:"location,omitempty" validate:"max=200"`
	Organic        bool            `json:"organic"`
	IsAvailable    *bool           `json:"isAvailable,omitempty"`
	HarvestDate    *time.Time      `json:"harvestDate,omitempty"`
	ExpiryDate     *time.Time      `json:"expiryDate,omitempty"`
	NutritionInfo  string          `json:"nutritionInfo,omitempty" validate:"max=2000"`
	Certifications []string        `json:"certifications,omitempty" validate:"max=20,dive,max=80"`
}

// UpdateInput merges into a listing; nil fields are left alone. Rating and
// review count are owned by review aggregation and cannot be set here.
type UpdateInput struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Category       *string          `json:"category,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Unit           *string          `json:"unit,omitempty" validate:"omitempty,min=1,max=20"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image          *string          `json:"image,omitempty" validate:"omitempty,max=500"`
	Inventory      *int             `json:"inventory,omitempty" validate:"omitempty,gte=0"`
	Location       *string          `json:"location,omitempty" validate:"omitempty,max=200"`
	Organic        *bool            `json:"organic,omitempty"`
	IsAvailable    *bool            `json:"isAvailable,omitempty"`
	HarvestDate    *time.Time       `json:"harvestDate,omitempty"`
	ExpiryDate     *time.Time       `json:"expiryDate,omitempty"`
	NutritionInfo  *string          `json:"nutritionInfo,omitempty" validate:"omitempty,max=2000"`
	Certifications *[]string        `json:"certifications,omitempty" validate:"omitempty,max=20,dive,max=80"`
}
