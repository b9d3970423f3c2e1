package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/logger"
)

type notificationPruner interface {
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type notificationCleanupJob struct {
	notifications notificationPruner
	cfg           config.CronConfig
	logg          *logger.Logger
}

// NotificationCleanupJobParams bundles the cleanup dependencies.
type NotificationCleanupJobParams struct {
	Notifications notificationPruner
	Config        config.CronConfig
	Logger        *logger.Logger
}

// NewNotificationCleanupJob prunes read notifications older than the
// configured retention, one bounded batch per cycle.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Notifications == nil {
		return Job{}, fmt.Errorf("notifications store is required")
	}
	job := &notificationCleanupJob{
		notifications: params.Notifications,
		cfg:           params.Config,
		logg:          params.Logger,
	}
	return Job{Name: "notification_cleanup", Run: job.run}, nil
}

func (j *notificationCleanupJob) run(ctx context.Context) error {
	maxAge := j.cfg.NotificationMaxAge
	if maxAge <= 0 {
		maxAge = 90 * 24 * time.Hour
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	deleted, err := j.notifications.DeleteReadOlderThan(ctx, cutoff, j.cfg.NotificationBatchMax)
	if err != nil {
		return fmt.Errorf("pruning notifications: %w", err)
	}
	if deleted > 0 && j.logg != nil {
		j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "old notifications pruned")
	}
	return nil
}
