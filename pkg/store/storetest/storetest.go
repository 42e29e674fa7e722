// Package storetest builds in-memory stores for service tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

// Now is the fixed instant fixtures are stamped with.
var Now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// New returns a memory-backed store pre-populated by prepare.
func New(t testing.TB, prepare func(*models.Snapshot)) *store.Store {
	t.Helper()
	s, err := store.New(store.NewMemoryBackend(), store.Options{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if prepare != nil {
		if err := s.Update(context.Background(), func(snap *models.Snapshot) error {
			prepare(snap)
			return nil
		}); err != nil {
			t.Fatalf("prepare store: %v", err)
		}
	}
	return s
}

// Snapshot loads the current document.
func Snapshot(t testing.TB, s *store.Store) *models.Snapshot {
	t.Helper()
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return snap
}

// Farmer is an active-subscription farmer fixture.
func Farmer(id, name string) models.User {
	end := Now.Add(30 * 24 * time.Hour)
	return models.User{
		ID:                  id,
		Name:                name,
		Email:               id + "@farm.test",
		Role:                enums.UserRoleFarmer,
		Location:            "Punjab, India",
		SubscriptionStatus:  enums.SubscriptionStatusActive,
		SubscriptionEndDate: &end,
		JoinedDate:          Now,
		LastLogin:           Now,
	}
}

// Consumer is a consumer fixture.
func Consumer(id, name string) models.User {
	return models.User{
		ID:         id,
		Name:       name,
		Email:      id + "@shop.test",
		Role:       enums.UserRoleConsumer,
		Location:   "Mumbai, India",
		JoinedDate: Now,
		LastLogin:  Now,
	}
}

// Product is an available listing fixture owned by farmer.
func Product(id string, farmer models.User, price int64, inventory int) models.Product {
	return models.Product{
		ID:             id,
		FarmerID:       farmer.ID,
		FarmerName:     farmer.Name,
		Name:           "Product " + id,
		Category:       string(enums.ProductCategoryVegetables),
		Price:          decimal.NewFromInt(price),
		Unit:           "kg",
		Inventory:      inventory,
		Location:       farmer.Location,
		Organic:        true,
		IsAvailable:    true,
		CreatedAt:      Now,
		UpdatedAt:      Now,
		Certifications: []string{},
	}
}
