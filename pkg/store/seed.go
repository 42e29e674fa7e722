package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
)

// SamplePassword is the credential given to the seeded demo accounts.
const SamplePassword = "password"

// PasswordHasher turns a plaintext password into its stored form.
type PasswordHasher func(password string) (string, error)

// Seed writes the demo farmer, consumer and products when the store has no
// users yet. It reports whether anything was written.
func Seed(ctx context.Context, s *Store, hash PasswordHasher, now time.Time) (bool, error) {
	if hash == nil {
		return false, fmt.Errorf("password hasher is required")
	}
	passwordHash, err := hash(SamplePassword)
	if err != nil {
		return false, fmt.Errorf("hash sample password: %w", err)
	}

	seeded := false
	err = s.Update(ctx, func(snap *models.Snapshot) error {
		seeded = false
		if len(snap.Users) > 0 {
			return nil
		}
		snap.Users = sampleUsers(passwordHash, now)
		snap.Products = append(snap.Products, sampleProducts(now)...)
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

func sampleUsers(passwordHash string, now time.Time) []models.User {
	subscriptionEnd := now.Add(30 * 24 * time.Hour).UTC()
	return []models.User{
		{
			ID:                  "1",
			Name:                "Green Valley Farm",
			Email:               "demo@greenvalley.com",
			PasswordHash:        passwordHash,
			Role:                enums.UserRoleFarmer,
			Location:            "Punjab, India",
			Phone:               "+91 98765 43210",
			Address:             "Village Kharar, Punjab 140301",
			SubscriptionStatus:  enums.SubscriptionStatusActive,
			SubscriptionEndDate: &subscriptionEnd,
			JoinedDate:          mustDate("2023-01-15"),
			LastLogin:           now.UTC(),
		},
		{
			ID:           "2",
			Name:         "Rajesh Kumar",
			Email:        "consumer@example.com",
			PasswordHash: passwordHash,
			Role:         enums.UserRoleConsumer,
			Location:     "Mumbai, India",
			Phone:        "+91 87654 32109",
			Address:      "Bandra West, Mumbai 400050",
			Preferences:  []string{"organic", "local", "vegetables"},
			JoinedDate:   mustDate("2023-03-20"),
			LastLogin:    now.UTC(),
		},
	}
}

func sampleProducts(now time.Time) []models.Product {
	created := mustDate("2024-01-01")
	tomatoHarvest, tomatoExpiry := mustDate("2024-01-10"), mustDate("2024-01-25")
	spinachHarvest, spinachExpiry := mustDate("2024-01-12"), mustDate("2024-01-20")
	return []models.Product{
		{
			ID:             "1",
			FarmerID:       "1",
			FarmerName:     "Green Valley Farm",
			Name:           "Organic Tomatoes",
			Category:       string(enums.ProductCategoryVegetables),
			Price:          decimal.NewFromInt(45),
			Unit:           "kg",
			Description:    "Fresh, vine-ripened organic tomatoes. Rich in vitamins and perfect for daily cooking.",
			Image:          "https://images.unsplash.com/photo-1546470427-e5380b6d8833?w=400&h=300&fit=crop",
			Inventory:      50,
			Location:       "Punjab, India",
			Organic:        true,
			Rating:         4.7,
			Reviews:        23,
			IsAvailable:    true,
			HarvestDate:    &tomatoHarvest,
			ExpiryDate:     &tomatoExpiry,
			NutritionInfo:  "High in Vitamin C, Lycopene, and Potassium",
			Certifications: []string{"USDA Organic", "FSSAI Certified"},
			CreatedAt:      created,
			UpdatedAt:      now.UTC(),
		},
		{
			ID:             "2",
			FarmerID:       "1",
			FarmerName:     "Green Valley Farm",
			Name:           "Fresh Spinach",
			Category:       string(enums.ProductCategoryVegetables),
			Price:          decimal.NewFromInt(25),
			Unit:           "kg",
			Description:    "Freshly harvested organic spinach leaves. Rich in iron and perfect for healthy meals.",
			Image:          "https://images.unsplash.com/photo-1576045057995-568f588f82fb?w=400&h=300&fit=crop",
			Inventory:      30,
			Location:       "Punjab, India",
			Organic:        true,
			Rating:         4.9,
			Reviews:        15,
			IsAvailable:    true,
			HarvestDate:    &spinachHarvest,
			ExpiryDate:     &spinachExpiry,
			NutritionInfo:  "High in Iron, Vitamin K, and Folate",
			Certifications: []string{"USDA Organic", "FSSAI Certified"},
			CreatedAt:      created,
			UpdatedAt:      now.UTC(),
		},
	}
}

func mustDate(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}
