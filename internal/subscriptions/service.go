package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

const updatedTitle = "Subscription Updated"

// Service defines the farmer subscription lifecycle surface.
type Service interface {
	Update(ctx context.Context, farmerID string, input UpdateInput) (*models.User, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// UpdateInput carries the requested status; EndDate is optional.
type UpdateInput struct {
	Status  enums.SubscriptionStatus `json:"status" validate:"required,oneof=active expired pending none"`
	EndDate *time.Time               `json:"endDate,omitempty"`
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Store  store.Transactor
	Period time.Duration
	Logger *logger.Logger
	Clock  func() time.Time
}

type service struct {
	store  store.Transactor
	period time.Duration
	logg   *logger.Logger
	clock  func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if params.Period <= 0 {
		return nil, fmt.Errorf("subscription period must be positive")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{store: params.Store, period: params.Period, logg: params.Logger, clock: params.Clock}, nil
}

// Update sets a farmer's subscription status. Activating without an end
// date grants one configured period from now.
func (s *service) Update(ctx context.Context, farmerID string, input UpdateInput) (*models.User, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid subscription status %q", input.Status)
	}

	now := s.clock().UTC()
	end := input.EndDate
	if end != nil {
		utc := end.UTC()
		end = &utc
	}
	if input.Status == enums.SubscriptionStatusActive {
		if end == nil {
			granted := now.Add(s.period)
			end = &granted
		} else if !end.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be in the future")
		}
	}

	var out models.User
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		farmer, ok := users.NewRepository(snap).FindByID(farmerID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		if !farmer.IsFarmer() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only farmers have subscriptions")
		}
		farmer.SubscriptionStatus = input.Status
		farmer.SubscriptionEndDate = end
		notifyStatus(snap, farmer.ID, input.Status, now)
		out = farmer.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"farmer_id": farmerID, "status": input.Status})
	s.logg.Info(ctx, "subscription.updated")
	return &out, nil
}

// ExpireDue flips every active subscription whose end date is at or before
// now to expired and notifies each farmer. It returns how many changed.
func (s *service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	expired := 0
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		expired = 0
		users.NewRepository(snap).Each(func(u *models.User) {
			if !u.IsFarmer() || u.SubscriptionStatus != enums.SubscriptionStatusActive {
				return
			}
			if u.SubscriptionEndDate == nil || u.SubscriptionEndDate.After(now) {
				return
			}
			u.SubscriptionStatus = enums.SubscriptionStatusExpired
			notifyStatus(snap, u.ID, enums.SubscriptionStatusExpired, now)
			expired++
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

func notifyStatus(snap *models.Snapshot, farmerID string, status enums.SubscriptionStatus, now time.Time) {
	notifications.NewRepository(snap).Create(notifications.NewNotification{
		UserID:  farmerID,
		Type:    enums.NotificationTypeSubscription,
		Title:   updatedTitle,
		Message: fmt.Sprintf("Your farmer subscription is now %s", status),
	}, now)
}
