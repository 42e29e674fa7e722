package notifications

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
)

// Repository reads and writes notifications inside one snapshot. Workflows
// that raise notifications build one over the snapshot they are already
// mutating so the notification commits with the change that caused it.
type Repository struct {
	snap *models.Snapshot
}

func NewRepository(snap *models.Snapshot) *Repository {
	return &Repository{snap: snap}
}

// NewNotification describes a notification to raise.
type NewNotification struct {
	UserID    string
	Type      enums.NotificationType
	Title     string
	Message   string
	ActionURL string
}

// Create appends an unread notification stamped at now.
func (r *Repository) Create(in NewNotification, now time.Time) models.Notification {
	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		ActionURL: in.ActionURL,
		CreatedAt: now.UTC(),
	}
	r.snap.Notifications = append(r.snap.Notifications, n)
	return n
}

// ListForUser returns the user's notifications newest first. Equal
// timestamps put the later insert first.
func (r *Repository) ListForUser(userID string, unreadOnly bool) []models.Notification {
	out := make([]models.Notification, 0)
	for i := len(r.snap.Notifications) - 1; i >= 0; i-- {
		n := r.snap.Notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pagination.Newer(
			pagination.Cursor{CreatedAt: out[i].CreatedAt, ID: out[i].ID},
			pagination.Cursor{CreatedAt: out[j].CreatedAt, ID: out[j].ID},
		)
	})
	return out
}

func (r *Repository) UnreadCount(userID string) int {
	count := 0
	for _, n := range r.snap.Notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count
}

// Find returns a pointer into the snapshot so callers can mutate in place.
func (r *Repository) Find(id string) (*models.Notification, bool) {
	for i := range r.snap.Notifications {
		if r.snap.Notifications[i].ID == id {
			return &r.snap.Notifications[i], true
		}
	}
	return nil, false
}

// MarkAllRead flips every unread notification of userID and reports how many changed.
func (r *Repository) MarkAllRead(userID string) int {
	changed := 0
	for i := range r.snap.Notifications {
		n := &r.snap.Notifications[i]
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed
}

// DeleteReadBefore drops read notifications created before cutoff.
func (r *Repository) DeleteReadBefore(cutoff time.Time) int {
	kept := r.snap.Notifications[:0]
	removed := 0
	for _, n := range r.snap.Notifications {
		if n.Read && n.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	r.snap.Notifications = kept
	return removed
}
