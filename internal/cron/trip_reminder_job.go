package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/google/uuid"
)

type tripLister interface {
	ListDepartingBetween(ctx context.Context, from, to time.Time) ([]models.RoadTrip, error)
}

type confirmedLister interface {
	ListConfirmedUserIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
}

type reminderStore interface {
	RecipientsWithReminder(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
	CreateBatch(ctx context.Context, notifications []models.TripNotification) error
}

type tripReminderJob struct {
	trips         tripLister
	participants  confirmedLister
	notifications reminderStore
	cfg           config.TripsConfig
	logg          *logger.Logger
}

// TripReminderJobParams bundles the reminder sweep dependencies.
type TripReminderJobParams struct {
	Trips         tripLister
	Participants  confirmedLister
	Notifications reminderStore
	Config        config.TripsConfig
	Logger        *logger.Logger
}

// NewTripReminderJob sweeps trips departing inside the reminder window and
// notifies their confirmed participants. Already-reminded users are skipped,
// so the sweep is safe to repeat.
func NewTripReminderJob(params TripReminderJobParams) (Job, error) {
	if params.Trips == nil || params.Participants == nil || params.Notifications == nil {
		return Job{}, fmt.Errorf("trips, participants, and notifications stores are required")
	}
	job := &tripReminderJob{
		trips:         params.Trips,
		participants:  params.Participants,
		notifications: params.Notifications,
		cfg:           params.Config,
		logg:          params.Logger,
	}
	return Job{Name: "trip_reminder", Run: job.run}, nil
}

func (j *tripReminderJob) run(ctx context.Context) error {
	horizon := j.cfg.ReminderHorizon
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}

	// The full window up to the horizon. Dedup keeps repeats harmless, and a
	// narrower band would miss trips when a sweep run is skipped.
	now := time.Now().UTC()
	trips, err := j.trips.ListDepartingBetween(ctx, now, now.Add(horizon))
	if err != nil {
		return fmt.Errorf("listing departing trips: %w", err)
	}

	for i := range trips {
		if err := j.remind(ctx, &trips[i]); err != nil {
			return err
		}
	}
	return nil
}

func (j *tripReminderJob) remind(ctx context.Context, trip *models.RoadTrip) error {
	confirmed, err := j.participants.ListConfirmedUserIDs(ctx, trip.ID)
	if err != nil {
		return fmt.Errorf("listing participants for trip %s: %w", trip.ID, err)
	}

	reminded, err := j.notifications.RecipientsWithReminder(ctx, trip.ID)
	if err != nil {
		return fmt.Errorf("listing sent reminders for trip %s: %w", trip.ID, err)
	}
	seen := make(map[uuid.UUID]struct{}, len(reminded))
	for _, id := range reminded {
		seen[id] = struct{}{}
	}

	batch := make([]models.TripNotification, 0, len(confirmed))
	for _, recipient := range append(confirmed, trip.OrganizerID) {
		if _, ok := seen[recipient]; ok {
			continue
		}
		seen[recipient] = struct{}{}
		tripID := trip.ID
		batch = append(batch, models.TripNotification{
			RecipientID: recipient,
			Type:        enums.NotificationTypeTripReminder,
			Title:       "Trip departing soon",
			Message:     fmt.Sprintf("Your trip %q departs at %s", trip.Title, trip.DepartureTime.Format(time.RFC1123)),
			TripID:      &tripID,
		})
	}
	if len(batch) == 0 {
		return nil
	}

	if err := j.notifications.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("creating reminders for trip %s: %w", trip.ID, err)
	}
	if j.logg != nil {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"trip_id":   trip.ID.String(),
			"reminders": len(batch),
		})
		j.logg.Info(logCtx, "trip reminders sent")
	}
	return nil
}
