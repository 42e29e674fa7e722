package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

type subscriptionExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type SubscriptionExpiryJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionExpirer
	Clock         func() time.Time
}

// NewSubscriptionExpiryJob flips lapsed farmer subscriptions to expired.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &subscriptionExpiryJob{logg: params.Logger, svc: params.Subscriptions, now: clock}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	svc  subscriptionExpirer
	now  func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return JobSubscriptionExpiry }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.svc.ExpireDue(ctx, j.now())
	if err != nil {
		return fmt.Errorf("expire subscriptions: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", expired), "subscription expiry complete")
	return nil
}
