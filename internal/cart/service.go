package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

// Service exposes cart operations for consumers.
type Service interface {
	Get(ctx context.Context, customerID string) (*View, error)
	Add(ctx context.Context, customerID, productID string, quantity int) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, customerID, itemID string, quantity int) (*models.CartItem, error)
	Remove(ctx context.Context, customerID, itemID string) error
	Clear(ctx context.Context, customerID string) (int, error)
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	Store   store.Transactor
	Pricing Pricing
	Clock   func() time.Time
}

type service struct {
	store   store.Transactor
	pricing Pricing
	clock   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{store: params.Store, pricing: params.Pricing, clock: params.Clock}, nil
}

func (s *service) Get(ctx context.Context, customerID string) (*View, error) {
	var items []models.CartItem
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		if err := ensureConsumer(snap, customerID); err != nil {
			return err
		}
		items = NewRepository(snap).ForCustomer(customerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &View{Items: items, Summary: s.pricing.Summarize(items)}, nil
}

// Add puts quantity units of a product in the cart, merging into an
// existing line for the same product.
func (s *service) Add(ctx context.Context, customerID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	now := s.clock().UTC()
	var out models.CartItem
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		if err := ensureConsumer(snap, customerID); err != nil {
			return err
		}
		product, ok := products.NewRepository(snap).FindByID(productID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if !product.IsAvailable {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is not available")
		}

		repo := NewRepository(snap)
		line, exists := repo.FindLine(customerID, productID)
		total := quantity
		if exists {
			total += line.Quantity
		}
		if err := checkStock(product, total); err != nil {
			return err
		}

		if exists {
			line.Quantity = total
			line.Product = *product
			out = *line
			return nil
		}
		out = repo.Add(models.CartItem{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			ProductID:  product.ID,
			Product:    *product,
			Quantity:   total,
			AddedAt:    now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line and
// returns nil.
func (s *service) UpdateQuantity(ctx context.Context, customerID, itemID string, quantity int) (*models.CartItem, error) {
	var out *models.CartItem
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		out = nil
		line, err := ownedLine(snap, customerID, itemID)
		if err != nil {
			return err
		}
		repo := NewRepository(snap)
		if quantity <= 0 {
			repo.RemoveIDs(line.ID)
			return nil
		}
		product, ok := products.NewRepository(snap).FindByID(line.ProductID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is no longer listed")
		}
		if err := checkStock(product, quantity); err != nil {
			return err
		}
		line.Quantity = quantity
		line.Product = *product
		updated := *line
		out = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Remove(ctx context.Context, customerID, itemID string) error {
	return s.store.Update(ctx, func(snap *models.Snapshot) error {
		line, err := ownedLine(snap, customerID, itemID)
		if err != nil {
			return err
		}
		NewRepository(snap).RemoveIDs(line.ID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, customerID string) (int, error) {
	removed := 0
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		if err := ensureConsumer(snap, customerID); err != nil {
			return err
		}
		removed = NewRepository(snap).ClearCustomer(customerID)
		return nil
	})
	return removed, err
}

func ensureConsumer(snap *models.Snapshot, customerID string) error {
	user, ok := users.NewRepository(snap).FindByID(customerID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if !user.IsConsumer() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only consumers have a cart")
	}
	return nil
}

func ownedLine(snap *models.Snapshot, customerID, itemID string) (*models.CartItem, error) {
	if err := ensureConsumer(snap, customerID); err != nil {
		return nil, err
	}
	line, ok := NewRepository(snap).FindByID(itemID)
	if !ok || line.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return line, nil
}

func checkStock(product *models.Product, quantity int) error {
	if quantity > product.Inventory {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "only %d %s of %s available", product.Inventory, product.Unit, product.Name).
			WithDetails(map[string]any{"productId": product.ID, "available": product.Inventory, "requested": quantity})
	}
	return nil
}
