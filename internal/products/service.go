package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

// Service defines catalog operations.
type Service interface {
	List(ctx context.Context, filter Filter) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, farmerID string, in CreateInput) (*models.Product, error)
	Update(ctx context.Context, farmerID, productID string, in UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, farmerID, productID string) error
}

type service struct {
	store store.Transactor
	clock func() time.Time
}

func NewService(st store.Transactor, clock func() time.Time) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{store: st, clock: clock}, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]models.Product, error) {
	if filter.Sort != "" && !filter.Sort.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown sort %q", filter.Sort)
	}
	var out []models.Product
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		out = NewRepository(snap).List(filter)
		return nil
	})
	return out, err
}

func (s *service) Get(ctx context.Context, id string) (*models.Product, error) {
	var out models.Product
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		p, ok := NewRepository(snap).FindByID(id)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Create(ctx context.Context, farmerID string, in CreateInput) (*models.Product, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	var out models.Product
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		farmer, err := activeFarmer(snap, farmerID)
		if err != nil {
			return err
		}
		available := true
		if in.IsAvailable != nil {
			available = *in.IsAvailable
		}
		location := strings.TrimSpace(in.Location)
		if location == "" {
			location = farmer.Location
		}
		certs := append([]string{}, in.Certifications...)
		out = NewRepository(snap).Create(models.Product{
			ID:             uuid.NewString(),
			FarmerID:       farmer.ID,
			FarmerName:     farmer.Name,
			Name:           strings.TrimSpace(in.Name),
			Category:       in.Category,
			Price:          in.Price,
			Unit:           strings.TrimSpace(in.Unit),
			Description:    strings.TrimSpace(in.Description),
			Image:          strings.TrimSpace(in.Image),
			Inventory:      in.Inventory,
			Location:       location,
			Organic:        in.Organic,
			IsAvailable:    available,
			HarvestDate:    in.HarvestDate,
			ExpiryDate:     in.ExpiryDate,
			NutritionInfo:  strings.TrimSpace(in.NutritionInfo),
			Certifications: certs,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Update(ctx context.Context, farmerID, productID string, in UpdateInput) (*models.Product, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	var out models.Product
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		p, err := ownedProduct(snap, farmerID, productID)
		if err != nil {
			return err
		}
		applyUpdate(p, in)
		// Patches may carry one date; check the pair as stored.
		if err := validateDates(p.HarvestDate, p.ExpiryDate); err != nil {
			return err
		}
		p.UpdatedAt = now
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Delete(ctx context.Context, farmerID, productID string) error {
	return s.store.Update(ctx, func(snap *models.Snapshot) error {
		if _, err := ownedProduct(snap, farmerID, productID); err != nil {
			return err
		}
		NewRepository(snap).Delete(productID)
		return nil
	})
}

func activeFarmer(snap *models.Snapshot, farmerID string) (*models.User, error) {
	farmer, ok := users.NewRepository(snap).FindByID(farmerID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
	}
	if !farmer.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers can list products")
	}
	if !users.CanAccessFarmerFeatures(farmer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "an active farmer subscription is required")
	}
	return farmer, nil
}

func ownedProduct(snap *models.Snapshot, farmerID, productID string) (*models.Product, error) {
	p, ok := NewRepository(snap).FindByID(productID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if p.FarmerID != farmerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another farmer")
	}
	return p, nil
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(in.Unit) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}
	if err := validateCategory(in.Category); err != nil {
		return err
	}
	if err := validatePrice(in.Price); err != nil {
		return err
	}
	if in.Inventory < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory cannot be negative")
	}
	return validateDates(in.HarvestDate, in.ExpiryDate)
}

func validateUpdate(in UpdateInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
	}
	if in.Unit != nil && strings.TrimSpace(*in.Unit) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit cannot be blank")
	}
	if in.Category != nil {
		if err := validateCategory(*in.Category); err != nil {
			return err
		}
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
	}
	if in.Inventory != nil && *in.Inventory < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory cannot be negative")
	}
	return validateDates(in.HarvestDate, in.ExpiryDate)
}

func validateCategory(category string) error {
	if !enums.ProductCategory(category).IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown category %q", category)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if price.Exponent() < -2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price supports at most two decimal places")
	}
	return nil
}

func validateDates(harvest, expiry *time.Time) error {
	if harvest != nil && expiry != nil && expiry.Before(*harvest) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry date precedes harvest date")
	}
	return nil
}

func applyUpdate(p *models.Product, in UpdateInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Unit != nil {
		p.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}
	if in.Inventory != nil {
		p.Inventory = *in.Inventory
	}
	if in.Location != nil {
		p.Location = strings.TrimSpace(*in.Location)
	}
	if in.Organic != nil {
		p.Organic = *in.Organic
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	if in.HarvestDate != nil {
		p.HarvestDate = in.HarvestDate
	}
	if in.ExpiryDate != nil {
		p.ExpiryDate = in.ExpiryDate
	}
	if in.NutritionInfo != nil {
		p.NutritionInfo = strings.TrimSpace(*in.NutritionInfo)
	}
	if in.Certifications != nil {
		p.Certifications = append([]string{}, (*in.Certifications)...)
	}
}
