package models

import (
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
)

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"createdAt"`
	ActionURL string                 `json:"actionUrl,omitempty"`
}
