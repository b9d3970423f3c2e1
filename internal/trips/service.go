package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/convoyapp/convoy-backend/internal/catalog"
	"github.com/convoyapp/convoy-backend/internal/eligibility"
	"github.com/convoyapp/convoy-backend/internal/notifications"
	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/convoyapp/convoy-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	minTitleLen        = 3
	minDestinationLen  = 3
	minMeetingPointLen = 5
	minDescriptionLen  = 10
)

// Service defines trip lifecycle operations.
type Service interface {
	Create(ctx context.Context, organizerID uuid.UUID, req CreateTripRequest) (*TripView, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, tripID uuid.UUID) (*TripView, error)
	Update(ctx context.Context, organizerID, tripID uuid.UUID, req UpdateTripRequest) (*TripView, error)
	Cancel(ctx context.Context, organizerID, tripID uuid.UUID) (*TripView, error)
}

type participantCounter interface {
	CountConfirmed(ctx context.Context, tripID uuid.UUID) (int64, error)
}

type service struct {
	db           *db.Client
	repo         Repository
	catalog      catalog.Repository
	participants participantCounter
	fanout       notifications.Fanout
	cfg          config.TripsConfig
	logg         *logger.Logger
}

// ServiceParams bundles the dependencies for the trips service.
type ServiceParams struct {
	DB           *db.Client
	Repo         Repository
	CatalogRepo  catalog.Repository
	Participants participantCounter
	Fanout       notifications.Fanout
	Config       config.TripsConfig
	Logger       *logger.Logger
}

// NewService constructs the trips service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("trips repository is required")
	}
	if params.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.Participants == nil {
		return nil, fmt.Errorf("participants repository is required")
	}
	if params.Fanout == nil {
		return nil, fmt.Errorf("notification fanout is required")
	}
	return &service{
		db:           params.DB,
		repo:         params.Repo,
		catalog:      params.CatalogRepo,
		participants: params.Participants,
		fanout:       params.Fanout,
		cfg:          params.Config,
		logg:         params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, organizerID uuid.UUID, req CreateTripRequest) (*TripView, error) {
	if organizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizer id required")
	}
	if err := validateTextFields(req.Title, req.Description, req.Destination, req.MeetingPoint); err != nil {
		return nil, err
	}
	if err := s.validateDeparture(req.DepartureTime); err != nil {
		return nil, err
	}
	if req.ReturnTime != nil && req.ReturnTime.Before(req.DepartureTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return date must be after the departure date")
	}

	trip := &models.RoadTrip{
		OrganizerID:     organizerID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Destination:     strings.TrimSpace(req.Destination),
		MeetingPoint:    strings.TrimSpace(req.MeetingPoint),
		DepartureTime:   req.DepartureTime,
		ReturnTime:      req.ReturnTime,
		MaxParticipants: 20,
		Difficulty:      enums.TripDifficultyModerate,
		Status:          enums.TripStatusPublished,
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max participants must be at least 1")
		}
		trip.MaxParticipants = *req.MaxParticipants
	}
	if req.Difficulty != nil {
		if !req.Difficulty.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown difficulty")
		}
		trip.Difficulty = *req.Difficulty
	}
	if req.Status != nil {
		if *req.Status != enums.TripStatusDraft && *req.Status != enums.TripStatusPublished {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a trip must be created as draft or published")
		}
		trip.Status = *req.Status
	}

	elig, err := s.buildEligibility(ctx, req.Eligibility)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, trip); err != nil {
			return err
		}
		elig.TripID = trip.ID
		return repo.ReplaceEligibility(ctx, elig)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trip")
	}

	trip.Eligibility = elig
	s.announce(ctx, func() error {
		return s.fanout.TripPublished(ctx, trip, eligibility.CriteriaFromModel(elig))
	})

	return s.Get(ctx, trip.ID)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := ListTripsParams{
		Status:       params.Status,
		Difficulty:   params.Difficulty,
		Destination:  strings.TrimSpace(params.Destination),
		Search:       strings.TrimSpace(params.Search),
		UpcomingOnly: params.UpcomingOnly,
		OrganizerID:  params.OrganizerID,
		MemberID:     params.MemberID,
		Limit:        params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trips")
	}

	items := make([]TripView, 0, len(rows))
	for i := range rows {
		confirmed, err := s.participants.CountConfirmed(ctx, rows[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count participants")
		}
		items = append(items, *FromModel(&rows[i], confirmed))
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, tripID uuid.UUID) (*TripView, error) {
	trip, err := s.find(ctx, tripID)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.participants.CountConfirmed(ctx, tripID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count participants")
	}
	return FromModel(trip, confirmed), nil
}

func (s *service) Update(ctx context.Context, organizerID, tripID uuid.UUID, req UpdateTripRequest) (*TripView, error) {
	trip, err := s.find(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.OrganizerID != organizerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Only the trip organizer can update this trip")
	}

	if req.Title != nil {
		if err := validateMinLen("title", *req.Title, minTitleLen); err != nil {
			return nil, err
		}
		trip.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		if err := validateMinLen("description", *req.Description, minDescriptionLen); err != nil {
			return nil, err
		}
		trip.Description = strings.TrimSpace(*req.Description)
	}
	if req.Destination != nil {
		if err := validateMinLen("destination", *req.Destination, minDestinationLen); err != nil {
			return nil, err
		}
		trip.Destination = strings.TrimSpace(*req.Destination)
	}
	if req.MeetingPoint != nil {
		if err := validateMinLen("meeting point", *req.MeetingPoint, minMeetingPointLen); err != nil {
			return nil, err
		}
		trip.MeetingPoint = strings.TrimSpace(*req.MeetingPoint)
	}
	if req.DepartureTime != nil {
		if err := s.validateDeparture(*req.DepartureTime); err != nil {
			return nil, err
		}
		trip.DepartureTime = *req.DepartureTime
	}
	if req.ReturnTime != nil {
		if req.ReturnTime.Before(trip.DepartureTime) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "return date must be after the departure date")
		}
		trip.ReturnTime = req.ReturnTime
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max participants must be at least 1")
		}
		trip.MaxParticipants = *req.MaxParticipants
	}
	if req.Difficulty != nil {
		if !req.Difficulty.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown difficulty")
		}
		trip.Difficulty = *req.Difficulty
	}

	cancelled := false
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status")
		}
		cancelled = *req.Status == enums.TripStatusCancelled && trip.Status != enums.TripStatusCancelled
		trip.Status = *req.Status
	}

	var elig *models.TripEligibility
	if req.Eligibility != nil {
		elig, err = s.buildEligibility(ctx, req.Eligibility)
		if err != nil {
			return nil, err
		}
		elig.TripID = trip.ID
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, trip); err != nil {
			return err
		}
		if elig == nil {
			return nil
		}
		return repo.ReplaceEligibility(ctx, elig)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update trip")
	}
	if elig != nil {
		trip.Eligibility = elig
	}

	if cancelled {
		s.announce(ctx, func() error { return s.fanout.TripCancelled(ctx, trip) })
	} else {
		s.announce(ctx, func() error { return s.fanout.TripUpdated(ctx, trip) })
	}

	return s.Get(ctx, tripID)
}

func (s *service) Cancel(ctx context.Context, organizerID, tripID uuid.UUID) (*TripView, error) {
	trip, err := s.find(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.OrganizerID != organizerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Only the trip organizer can cancel this trip")
	}
	if trip.Status == enums.TripStatusCancelled {
		return s.Get(ctx, tripID)
	}

	trip.Status = enums.TripStatusCancelled
	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel trip")
	}

	s.announce(ctx, func() error { return s.fanout.TripCancelled(ctx, trip) })

	return s.Get(ctx, tripID)
}

func (s *service) find(ctx context.Context, tripID uuid.UUID) (*models.RoadTrip, error) {
	if tripID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}
	trip, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup trip")
	}
	return trip, nil
}

// buildEligibility resolves the request criteria. Missing criteria default to
// an open trip.
func (s *service) buildEligibility(ctx context.Context, input *EligibilityInput) (*models.TripEligibility, error) {
	if input == nil {
		return &models.TripEligibility{OpenToAll: true}, nil
	}

	elig := &models.TripEligibility{}
	if input.OpenToAll != nil {
		elig.OpenToAll = *input.OpenToAll
	} else {
		elig.OpenToAll = len(input.BrandIDs) == 0 && len(input.ModelIDs) == 0 && len(input.TypeIDs) == 0
	}

	for _, id := range input.BrandIDs {
		ok, err := s.catalog.BrandExists(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup brand")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown brand")
		}
		elig.Brands = append(elig.Brands, models.CarBrand{ID: id})
	}
	for _, id := range input.ModelIDs {
		ok, err := s.catalog.ModelExists(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup model")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown model")
		}
		elig.Models = append(elig.Models, models.CarModel{ID: id})
	}
	for _, id := range input.TypeIDs {
		ok, err := s.catalog.TypeExists(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup type")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown type")
		}
		elig.Types = append(elig.Types, models.CarType{ID: id})
	}
	return elig, nil
}

func (s *service) validateDeparture(departure time.Time) error {
	lead := s.cfg.MinLeadTime
	if lead <= 0 {
		lead = 72 * time.Hour
	}
	if departure.Before(time.Now().UTC().Add(lead)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Departure date must be at least 3 days in advance")
	}
	return nil
}

// announce runs a fan-out after the write committed. Delivery failures are
// logged, never surfaced to the caller.
func (s *service) announce(ctx context.Context, fn func() error) {
	if err := fn(); err != nil && s.logg != nil {
		s.logg.Error(ctx, "notification fanout failed", err)
	}
}

func validateTextFields(title, description, destination, meetingPoint string) error {
	if err := validateMinLen("title", title, minTitleLen); err != nil {
		return err
	}
	if err := validateMinLen("description", description, minDescriptionLen); err != nil {
		return err
	}
	if err := validateMinLen("destination", destination, minDestinationLen); err != nil {
		return err
	}
	return validateMinLen("meeting point", meetingPoint, minMeetingPointLen)
}

func validateMinLen(field, value string, min int) error {
	if len(strings.TrimSpace(value)) < min {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s must be at least %d characters long", field, min))
	}
	return nil
}
