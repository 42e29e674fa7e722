package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ListParams selects one user's notifications.
type ListParams struct {
	UserID     string
	UnreadOnly bool
	Page       pagination.Params
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor,omitempty"`
}

type service struct {
	store store.Transactor
}

func NewService(st store.Transactor) (Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &service{store: st}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var items []models.Notification
	if err := s.store.View(ctx, func(snap *models.Snapshot) error {
		items = NewRepository(snap).ListForUser(params.UserID, params.UnreadOnly)
		return nil
	}); err != nil {
		return nil, err
	}

	page, err := pagination.Apply(items, params.Page, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return &ListResult{Items: page.Items, Cursor: page.NextCursor}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count := 0
	err := s.store.View(ctx, func(snap *models.Snapshot) error {
		count = NewRepository(snap).UnreadCount(userID)
		return nil
	})
	return count, err
}

// MarkRead is idempotent: marking an already-read notification succeeds
// without writing anything new.
func (s *service) MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	if strings.TrimSpace(notificationID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	var out models.Notification
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		n, ok := NewRepository(snap).Find(notificationID)
		if !ok || n.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		n.Read = true
		out = *n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	changed := 0
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		changed = NewRepository(snap).MarkAllRead(userID)
		return nil
	})
	return changed, err
}

func (s *service) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		removed = NewRepository(snap).DeleteReadBefore(cutoff)
		return nil
	})
	return removed, err
}
