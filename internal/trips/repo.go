package trips

import (
	"context"
	"errors"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	"github.com/convoyapp/convoy-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence helpers for road trips.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, trip *models.RoadTrip) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RoadTrip, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RoadTrip, error)
	List(ctx context.Context, params ListTripsParams) ([]models.RoadTrip, *pagination.Cursor, error)
	Update(ctx context.Context, trip *models.RoadTrip) error
	ReplaceEligibility(ctx context.Context, eligibility *models.TripEligibility) error
	ListDepartingBetween(ctx context.Context, from, to time.Time) ([]models.RoadTrip, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a trips repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// ListTripsParams filters and paginates the trip listing query. MemberID
// matches trips the user organizes or participates in.
type ListTripsParams struct {
	Status       *enums.TripStatus
	Difficulty   *enums.TripDifficulty
	Destination  string
	Search       string
	UpcomingOnly bool
	OrganizerID  *uuid.UUID
	MemberID     *uuid.UUID
	Limit        int
	Cursor       *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, trip *models.RoadTrip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.RoadTrip, error) {
	var trip models.RoadTrip
	if err := r.withEligibility(ctx).First(&trip, "road_trips.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

// FindByIDForUpdate locks the trip row so capacity checks cannot race.
func (r *repositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RoadTrip, error) {
	var trip models.RoadTrip
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&trip, "id = ?", id).Error; err != nil {
		return nil, err
	}

	var elig models.TripEligibility
	err := r.db.WithContext(ctx).
		Preload("Brands").
		Preload("Models").
		Preload("Types").
		First(&elig, "trip_id = ?", id).Error
	if err == nil {
		trip.Eligibility = &elig
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &trip, nil
}

func (r *repositoryImpl) List(ctx context.Context, params ListTripsParams) ([]models.RoadTrip, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.withEligibility(ctx).Model(&models.RoadTrip{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Difficulty != nil {
		query = query.Where("difficulty = ?", *params.Difficulty)
	}
	if params.Destination != "" {
		query = query.Where("destination ILIKE ?", "%"+params.Destination+"%")
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("(title ILIKE ? OR destination ILIKE ? OR description ILIKE ?)", like, like, like)
	}
	if params.UpcomingOnly {
		query = query.Where("departure_time > now()")
	}
	if params.OrganizerID != nil {
		query = query.Where("organizer_id = ?", *params.OrganizerID)
	}
	if params.MemberID != nil {
		membership := r.db.WithContext(ctx).
			Model(&models.TripParticipant{}).
			Select("trip_id").
			Where("user_id = ?", *params.MemberID)
		query = query.Where("organizer_id = ? OR road_trips.id IN (?)", *params.MemberID, membership)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var trips []models.RoadTrip
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&trips).Error; err != nil {
		return nil, nil, err
	}

	if len(trips) > normalized {
		trips = trips[:normalized]
		last := trips[normalized-1]
		return trips, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return trips, nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, trip *models.RoadTrip) error {
	return r.db.WithContext(ctx).
		Omit("Eligibility", "Participants", "Organizer").
		Save(trip).Error
}

// ReplaceEligibility rewrites the criteria row and its association tables.
func (r *repositoryImpl) ReplaceEligibility(ctx context.Context, eligibility *models.TripEligibility) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("trip_id = ?", eligibility.TripID).Delete(&models.TripEligibility{}).Error; err != nil {
		return err
	}
	return tx.Create(eligibility).Error
}

// ListDepartingBetween returns published trips whose departure falls inside
// the window. The reminder sweep uses this.
func (r *repositoryImpl) ListDepartingBetween(ctx context.Context, from, to time.Time) ([]models.RoadTrip, error) {
	var trips []models.RoadTrip
	if err := r.db.WithContext(ctx).
		Where("status = ? AND departure_time BETWEEN ? AND ?", enums.TripStatusPublished, from, to).
		Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *repositoryImpl) withEligibility(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Eligibility").
		Preload("Eligibility.Brands").
		Preload("Eligibility.Models").
		Preload("Eligibility.Types")
}
