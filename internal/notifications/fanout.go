package notifications

import (
	"context"
	"fmt"

	"github.com/convoyapp/convoy-backend/internal/eligibility"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/google/uuid"
)

// Fanout emits notifications for trip lifecycle events. Services call these
// methods explicitly after their transaction commits.
type Fanout interface {
	TripPublished(ctx context.Context, trip *models.RoadTrip, criteria eligibility.Criteria) error
	TripUpdated(ctx context.Context, trip *models.RoadTrip) error
	TripCancelled(ctx context.Context, trip *models.RoadTrip) error
	ParticipantJoined(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID) error
	ParticipantLeft(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID) error
	StatusChanged(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID, status enums.ParticipantStatus) error
}

type participantLister interface {
	ListConfirmedUserIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
}

type audienceResolver interface {
	RecipientsForTrip(ctx context.Context, organizerID uuid.UUID, criteria eligibility.Criteria) ([]uuid.UUID, error)
}

type fanout struct {
	repo         Repository
	participants participantLister
	audience     audienceResolver
	logg         *logger.Logger
}

// FanoutParams bundles the fan-out dependencies.
type FanoutParams struct {
	Repo         Repository
	Participants participantLister
	Audience     audienceResolver
	Logger       *logger.Logger
}

// NewFanout constructs the notification fan-out.
func NewFanout(params FanoutParams) (Fanout, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.Participants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "participants lister required")
	}
	if params.Audience == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audience resolver required")
	}
	return &fanout{
		repo:         params.Repo,
		participants: params.Participants,
		audience:     params.Audience,
		logg:         params.Logger,
	}, nil
}

func (f *fanout) TripPublished(ctx context.Context, trip *models.RoadTrip, criteria eligibility.Criteria) error {
	if trip == nil || trip.Status != enums.TripStatusPublished {
		return nil
	}

	recipients, err := f.audience.RecipientsForTrip(ctx, trip.OrganizerID, criteria)
	if err != nil {
		return err
	}

	batch := buildBatch(recipients, trip.ID, nil, enums.NotificationTypeNewTrip,
		"New road trip",
		fmt.Sprintf("A new trip to %s has been posted: %s", trip.Destination, trip.Title))
	return f.deliver(ctx, trip.ID, batch)
}

func (f *fanout) TripUpdated(ctx context.Context, trip *models.RoadTrip) error {
	return f.notifyConfirmed(ctx, trip, enums.NotificationTypeTripUpdated,
		"Trip updated",
		fmt.Sprintf("The trip %q has been updated by the organizer", trip.Title))
}

func (f *fanout) TripCancelled(ctx context.Context, trip *models.RoadTrip) error {
	return f.notifyConfirmed(ctx, trip, enums.NotificationTypeTripCancelled,
		"Trip cancelled",
		fmt.Sprintf("The trip %q has been cancelled", trip.Title))
}

func (f *fanout) ParticipantJoined(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID) error {
	if trip == nil {
		return nil
	}
	notification := models.TripNotification{
		RecipientID:   trip.OrganizerID,
		Type:          enums.NotificationTypeParticipantJoined,
		Title:         "New participant",
		Message:       fmt.Sprintf("Someone joined your trip %q", trip.Title),
		TripID:        &trip.ID,
		RelatedUserID: &userID,
	}
	if err := f.repo.Create(ctx, &notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (f *fanout) ParticipantLeft(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID) error {
	if trip == nil {
		return nil
	}
	notification := models.TripNotification{
		RecipientID:   trip.OrganizerID,
		Type:          enums.NotificationTypeParticipantLeft,
		Title:         "Participant left",
		Message:       fmt.Sprintf("A participant left your trip %q", trip.Title),
		TripID:        &trip.ID,
		RelatedUserID: &userID,
	}
	if err := f.repo.Create(ctx, &notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (f *fanout) StatusChanged(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID, status enums.ParticipantStatus) error {
	if trip == nil {
		return nil
	}

	kind := enums.NotificationTypeRequestDeclined
	title := "Request declined"
	message := fmt.Sprintf("Your request to join %q was declined", trip.Title)
	if status == enums.ParticipantStatusConfirmed {
		kind = enums.NotificationTypeRequestApproved
		title = "Request approved"
		message = fmt.Sprintf("Your request to join %q was approved", trip.Title)
	}

	notification := models.TripNotification{
		RecipientID:   userID,
		Type:          kind,
		Title:         title,
		Message:       message,
		TripID:        &trip.ID,
		RelatedUserID: &trip.OrganizerID,
	}
	if err := f.repo.Create(ctx, &notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (f *fanout) notifyConfirmed(ctx context.Context, trip *models.RoadTrip, kind enums.NotificationType, title, message string) error {
	if trip == nil {
		return nil
	}
	participantIDs, err := f.participants.ListConfirmedUserIDs(ctx, trip.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list participants")
	}

	recipients := make([]uuid.UUID, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == trip.OrganizerID {
			continue
		}
		recipients = append(recipients, id)
	}

	batch := buildBatch(recipients, trip.ID, &trip.OrganizerID, kind, title, message)
	return f.deliver(ctx, trip.ID, batch)
}

func (f *fanout) deliver(ctx context.Context, tripID uuid.UUID, batch []models.TripNotification) error {
	if len(batch) == 0 {
		return nil
	}
	if err := f.repo.CreateBatch(ctx, batch); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notifications")
	}
	if f.logg != nil {
		logCtx := f.logg.WithFields(ctx, map[string]any{
			"trip_id":    tripID.String(),
			"recipients": len(batch),
			"type":       string(batch[0].Type),
		})
		f.logg.Info(logCtx, "notifications.fanout")
	}
	return nil
}

func buildBatch(recipients []uuid.UUID, tripID uuid.UUID, relatedUserID *uuid.UUID, kind enums.NotificationType, title, message string) []models.TripNotification {
	batch := make([]models.TripNotification, 0, len(recipients))
	for _, recipient := range recipients {
		id := tripID
		batch = append(batch, models.TripNotification{
			RecipientID:   recipient,
			Type:          kind,
			Title:         title,
			Message:       message,
			TripID:        &id,
			RelatedUserID: relatedUserID,
		})
	}
	return batch
}
