package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

type notificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Notifications notificationPurger
	Retention     time.Duration
	Clock         func() time.Time
}

// NewNotificationCleanupJob removes read notifications older than the
// retention window. Unread ones are never purged.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		svc:       params.Notifications,
		retention: retention,
		now:       clock,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	svc       notificationPurger
	retention time.Duration
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return JobNotificationCleanup }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.svc.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
