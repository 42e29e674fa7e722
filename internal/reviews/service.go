package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

const (
	MinRating = 1
	MaxRating = 5

	newReviewTitle     = "New Review"
	newReviewActionURL = "/farmer-dashboard"
)

// CreateInput is the body of a new product review.
type CreateInput struct {
	ProductID string   `json:"productId" validate:"required"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Comment   string   `json:"comment" validate:"max=2000"`
	Images    []string `json:"images,omitempty" validate:"max=5,dive,url"`
}

type Service interface {
	Create(ctx context.Context, customerID string, input CreateInput) (*models.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	MarkHelpful(ctx context.Context, reviewID string) (*models.Review, error)
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

// Create stores the review, refreshes the product's rating aggregate and
// notifies the selling farmer in one transaction.
func (s *service) Create(ctx context.Context, customerID string, input CreateInput) (*models.Review, error) {
	if input.Rating < MinRating || input.Rating > MaxRating {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "rating must be between %d and %d", MinRating, MaxRating)
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	now := s.clock().UTC()
	var out models.Review
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		customer, ok := users.NewRepository(snap).FindByID(customerID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		if !customer.IsConsumer() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only consumers can review products")
		}
		product, ok := products.NewRepository(snap).FindByID(input.ProductID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		repo := NewRepository(snap)
		out = repo.Create(models.Review{
			ID:           uuid.NewString(),
			ProductID:    product.ID,
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Rating:       input.Rating,
			Comment:      strings.TrimSpace(input.Comment),
			Images:       input.Images,
			CreatedAt:    now,
		})

		sum, count := repo.Aggregate(product.ID)
		product.Rating = models.RoundRating(sum, count)
		product.Reviews = count

		notifications.NewRepository(snap).Create(notifications.NewNotification{
			UserID:    product.FarmerID,
			Type:      enums.NotificationTypeReview,
			Title:     newReviewTitle,
			Message:   fmt.Sprintf("%s rated %s %d/5", customer.Name, product.Name, input.Rating),
			ActionURL: newReviewActionURL,
		}, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var out []models.Review
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		out = NewRepository(snap).ListByProduct(productID)
		return nil
	})
	return out, err
}

func (s *service) MarkHelpful(ctx context.Context, reviewID string) (*models.Review, error) {
	var out models.Review
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		rv, ok := NewRepository(snap).FindByID(reviewID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		rv.Helpful++
		out = *rv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
