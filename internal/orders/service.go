package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

const (
	statusUpdatedTitle     = "Order Status Updated"
	statusUpdatedActionURL = "/orders"
)

// Service exposes order reads and the status state machine.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, userID, orderID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, actorID, orderID string, status enums.OrderStatus) (*models.Order, error)
}

// ListParams selects the orders visible to one user. Role defaults to the
// user's own role and may not name a different one.
type ListParams struct {
	UserID string
	Role   enums.UserRole
	Page   pagination.Params
}

type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor,omitempty"`
}

type transitionMetrics interface {
	IncTransition(from, to string)
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Store   store.Transactor
	Metrics transitionMetrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	store   store.Transactor
	metrics transitionMetrics
	logg    *logger.Logger
	clock   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if params.Metrics == nil {
		return nil, fmt.Errorf("metrics are required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{store: params.Store, metrics: params.Metrics, logg: params.Logger, clock: params.Clock}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Role != "" && !params.Role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", params.Role)
	}

	var items []models.Order
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		user, ok := users.NewRepository(snap).FindByID(params.UserID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		if params.Role != "" && params.Role != user.Role {
			return pkgerrors.Newf(pkgerrors.CodeForbidden, "cannot list orders as %s", params.Role)
		}
		items = NewRepository(snap).ListFor(user.ID, user.Role)
		return nil
	})
	if err != nil {
		return nil, err
	}

	page, err := pagination.Apply(items, params.Page, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.OrderDate, ID: o.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return &ListResult{Items: page.Items, Cursor: page.NextCursor}, nil
}

// Get returns the order when userID is its buyer or seller. Anyone else gets
// NOT_FOUND so order ids cannot be probed.
func (s *service) Get(ctx context.Context, userID, orderID string) (*models.Order, error) {
	var out models.Order
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		o, ok := NewRepository(snap).FindByID(orderID)
		if !ok || !o.HasParty(userID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		out = *o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus moves an order along the transition table. The selling farmer
// drives every edge; the buyer may only cancel a pending order.
func (s *service) UpdateStatus(ctx context.Context, actorID, orderID string, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}

	now := s.clock().UTC()
	var (
		out  models.Order
		from enums.OrderStatus
	)
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		o, ok := NewRepository(snap).FindByID(orderID)
		if !ok || !o.HasParty(actorID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err := authorizeTransition(*o, actorID, status); err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", o.Status, status).
				WithDetails(map[string]any{"status": o.Status, "allowed": o.Status.NextStatuses()})
		}

		from = o.Status
		o.Status = status
		o.UpdatedAt = &now
		switch status {
		case enums.OrderStatusDelivered:
			o.DeliveryDate = &now
		case enums.OrderStatusCancelled:
			catalog := products.NewRepository(snap)
			for _, item := range o.Items {
				catalog.Restock(item.ProductID, item.Quantity)
			}
		}

		notifications.NewRepository(snap).Create(notifications.NewNotification{
			UserID:    o.CustomerID,
			Type:      enums.NotificationTypeOrder,
			Title:     statusUpdatedTitle,
			Message:   fmt.Sprintf("Your order #%s is now %s", o.ID, status),
			ActionURL: statusUpdatedActionURL,
		}, now)
		out = *o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(from), string(status))
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id": out.ID,
		"actor_id": actorID,
		"from":     from,
		"to":       status,
	})
	s.logg.Info(ctx, "order.status_changed")
	return &out, nil
}

func authorizeTransition(o models.Order, actorID string, to enums.OrderStatus) error {
	if o.FarmerID == actorID {
		return nil
	}
	if o.CustomerID == actorID && o.Status == enums.OrderStatusPending && to == enums.OrderStatusCancelled {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the farmer can move this order").
		WithDetails(map[string]any{"status": o.Status, "requested": to})
}
