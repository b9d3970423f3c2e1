package participation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/convoyapp/convoy-backend/internal/eligibility"
	"github.com/convoyapp/convoy-backend/internal/notifications"
	"github.com/convoyapp/convoy-backend/internal/trips"
	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines participation state transitions on a trip.
type Service interface {
	Join(ctx context.Context, tripID, userID uuid.UUID, req JoinRequest) (*ParticipantView, error)
	Leave(ctx context.Context, tripID, userID uuid.UUID) error
	ListParticipants(ctx context.Context, tripID uuid.UUID) ([]ParticipantView, error)
	UpdateStatus(ctx context.Context, actorID, tripID, participantID uuid.UUID, status enums.ParticipantStatus) (*ParticipantView, error)
}

type eligibilityChecker interface {
	IsUserEligible(ctx context.Context, userID uuid.UUID, criteria eligibility.Criteria) (bool, error)
}

type service struct {
	db          *db.Client
	repo        Repository
	trips       trips.Repository
	eligibility eligibilityChecker
	fanout      notifications.Fanout
	cfg         config.TripsConfig
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies for the participation service.
type ServiceParams struct {
	DB          *db.Client
	Repo        Repository
	TripsRepo   trips.Repository
	Eligibility eligibilityChecker
	Fanout      notifications.Fanout
	Config      config.TripsConfig
	Logger      *logger.Logger
}

// NewService constructs the participation service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("participation repository is required")
	}
	if params.TripsRepo == nil {
		return nil, fmt.Errorf("trips repository is required")
	}
	if params.Eligibility == nil {
		return nil, fmt.Errorf("eligibility service is required")
	}
	if params.Fanout == nil {
		return nil, fmt.Errorf("notification fanout is required")
	}
	return &service{
		db:          params.DB,
		repo:        params.Repo,
		trips:       params.TripsRepo,
		eligibility: params.Eligibility,
		fanout:      params.Fanout,
		cfg:         params.Config,
		logg:        params.Logger,
	}, nil
}

// Join adds the user as a confirmed participant. The trip row is locked for
// the duration of the transaction so the capacity check cannot race.
func (s *service) Join(ctx context.Context, tripID, userID uuid.UUID, req JoinRequest) (*ParticipantView, error) {
	if tripID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}

	var trip *models.RoadTrip
	participant := &models.TripParticipant{
		TripID:           tripID,
		UserID:           userID,
		Status:           enums.ParticipantStatusConfirmed,
		Message:          req.Message,
		EmergencyContact: req.EmergencyContact,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		tripsRepo := s.trips.WithTx(tx)
		repo := s.repo.WithTx(tx)

		var err error
		trip, err = tripsRepo.FindByIDForUpdate(ctx, tripID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup trip")
		}

		if _, err := repo.Find(ctx, tripID, userID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "You are already participating in this trip")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup participant")
		}

		confirmed, err := repo.CountConfirmed(ctx, tripID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count participants")
		}
		if confirmed >= int64(trip.MaxParticipants) {
			return pkgerrors.New(pkgerrors.CodeConflict, "This trip is full")
		}

		if trip.Status != enums.TripStatusPublished || !trip.DepartureTime.After(time.Now().UTC()) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cannot join a trip that has already started or ended")
		}

		eligible, err := s.eligibility.IsUserEligible(ctx, userID, eligibility.CriteriaFromModel(trip.Eligibility))
		if err != nil {
			return err
		}
		if !eligible {
			return pkgerrors.New(pkgerrors.CodeForbidden, "Your car does not meet the eligibility criteria for this trip")
		}

		return repo.Create(ctx, participant)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "join trip")
	}

	s.announce(ctx, func() error { return s.fanout.ParticipantJoined(ctx, trip, userID) })

	return FromModel(participant), nil
}

// Leave removes the user's membership, subject to the departure cutoff.
func (s *service) Leave(ctx context.Context, tripID, userID uuid.UUID) error {
	if tripID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}

	trip, err := s.findTrip(ctx, tripID)
	if err != nil {
		return err
	}

	participant, err := s.repo.Find(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "You are not participating in this trip")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup participant")
	}

	cutoff := s.cfg.LeaveCutoff
	if cutoff <= 0 {
		cutoff = 24 * time.Hour
	}
	if time.Until(trip.DepartureTime) < cutoff {
		return pkgerrors.New(pkgerrors.CodeValidation, "Cannot leave a trip less than 24 hours before departure")
	}

	if err := s.repo.Delete(ctx, participant.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "leave trip")
	}

	s.announce(ctx, func() error { return s.fanout.ParticipantLeft(ctx, trip, userID) })

	return nil
}

func (s *service) ListParticipants(ctx context.Context, tripID uuid.UUID) ([]ParticipantView, error) {
	if tripID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}
	if _, err := s.findTrip(ctx, tripID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list participants")
	}
	views := make([]ParticipantView, 0, len(rows))
	for i := range rows {
		views = append(views, *FromModel(&rows[i]))
	}
	return views, nil
}

// UpdateStatus lets the organizer approve or decline a membership. The
// participant only hears about it when the status actually changes.
func (s *service) UpdateStatus(ctx context.Context, actorID, tripID, participantID uuid.UUID, status enums.ParticipantStatus) (*ParticipantView, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown participant status")
	}

	trip, err := s.findTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.OrganizerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Only the trip organizer can update participant status")
	}

	participant, err := s.repo.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup participant")
	}
	if participant.TripID != tripID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
	}

	if participant.Status == status {
		return FromModel(participant), nil
	}

	if err := s.repo.UpdateStatus(ctx, participant.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update participant")
	}
	participant.Status = status

	if status == enums.ParticipantStatusConfirmed || status == enums.ParticipantStatusDeclined {
		s.announce(ctx, func() error {
			return s.fanout.StatusChanged(ctx, trip, participant.UserID, status)
		})
	}

	return FromModel(participant), nil
}

func (s *service) findTrip(ctx context.Context, tripID uuid.UUID) (*models.RoadTrip, error) {
	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup trip")
	}
	return trip, nil
}

func (s *service) announce(ctx context.Context, fn func() error) {
	if err := fn(); err != nil && s.logg != nil {
		s.logg.Error(ctx, "notification fanout failed", err)
	}
}
