package participation

import (
	"context"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for trip participants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, participant *models.TripParticipant) error
	Find(ctx context.Context, tripID, userID uuid.UUID) (*models.TripParticipant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.TripParticipant, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.TripParticipant, error)
	ListConfirmedUserIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
	CountConfirmed(ctx context.Context, tripID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ParticipantStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a participation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, participant *models.TripParticipant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *repositoryImpl) Find(ctx context.Context, tripID, userID uuid.UUID) (*models.TripParticipant, error) {
	var participant models.TripParticipant
	if err := r.db.WithContext(ctx).
		First(&participant, "trip_id = ? AND user_id = ?", tripID, userID).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.TripParticipant, error) {
	var participant models.TripParticipant
	if err := r.db.WithContext(ctx).First(&participant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repositoryImpl) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.TripParticipant, error) {
	var participants []models.TripParticipant
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *repositoryImpl) ListConfirmedUserIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.TripParticipant{}).
		Where("trip_id = ? AND status = ?", tripID, enums.ParticipantStatusConfirmed).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repositoryImpl) CountConfirmed(ctx context.Context, tripID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TripParticipant{}).
		Where("trip_id = ? AND status = ?", tripID, enums.ParticipantStatusConfirmed).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ParticipantStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.TripParticipant{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.TripParticipant{}, "id = ?", id).Error
}
