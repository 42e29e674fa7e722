package enums

import "fmt"

// NotificationType groups in-app notifications by the workflow that raised them.
type NotificationType string

const (
	NotificationTypeOrder        NotificationType = "order"
	NotificationTypeMessage      NotificationType = "message"
	NotificationTypeSubscription NotificationType = "subscription"
	NotificationTypeReview       NotificationType = "review"
	NotificationTypeSystem       NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrder,
	NotificationTypeMessage,
	NotificationTypeSubscription,
	NotificationTypeReview,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
