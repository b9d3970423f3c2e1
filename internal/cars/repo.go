package cars

import (
	"context"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for cars and their photos.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, car *models.Car) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Car, error)
	FirstByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Car, error)
	Update(ctx context.Context, car *models.Car) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountPhotos(ctx context.Context, carID uuid.UUID) (int64, error)
	AddPhoto(ctx context.Context, photo *models.CarPhoto) error
	DeletePhoto(ctx context.Context, carID, photoID uuid.UUID) (bool, error)
	ReplacePhotos(ctx context.Context, carID uuid.UUID, photos []models.CarPhoto) error
	ListOwnerIDsMatching(ctx context.Context, brandIDs, modelIDs, typeIDs []uuid.UUID) ([]uuid.UUID, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a cars repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, car *models.Car) error {
	return r.db.WithContext(ctx).Create(car).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	var car models.Car
	if err := r.withAssociations(ctx).First(&car, "cars.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *repositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Car, error) {
	var cars []models.Car
	if err := r.withAssociations(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&cars).Error; err != nil {
		return nil, err
	}
	return cars, nil
}

// FirstByOwner returns the earliest-registered car. Eligibility checks run
// against this vehicle.
func (r *repositoryImpl) FirstByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Car, error) {
	var car models.Car
	if err := r.withAssociations(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		First(&car).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *repositoryImpl) Update(ctx context.Context, car *models.Car) error {
	return r.db.WithContext(ctx).Omit("Photos", "Brand", "Model", "Variant", "Type", "Owner").Save(car).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Car{}, "id = ?", id).Error
}

func (r *repositoryImpl) CountPhotos(ctx context.Context, carID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CarPhoto{}).
		Where("car_id = ?", carID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repositoryImpl) AddPhoto(ctx context.Context, photo *models.CarPhoto) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

// ReplacePhotos swaps the car's full photo set.
func (r *repositoryImpl) ReplacePhotos(ctx context.Context, carID uuid.UUID, photos []models.CarPhoto) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("car_id = ?", carID).Delete(&models.CarPhoto{}).Error; err != nil {
		return err
	}
	for i := range photos {
		photos[i].CarID = carID
	}
	return tx.Create(&photos).Error
}

func (r *repositoryImpl) DeletePhoto(ctx context.Context, carID, photoID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND car_id = ?", photoID, carID).
		Delete(&models.CarPhoto{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListOwnerIDsMatching returns distinct owners whose cars match any of the
// provided brand, model, or type criteria.
func (r *repositoryImpl) ListOwnerIDsMatching(ctx context.Context, brandIDs, modelIDs, typeIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(brandIDs) == 0 && len(modelIDs) == 0 && len(typeIDs) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Car{})
	conditions := r.db.Session(&gorm.Session{NewDB: true})
	if len(brandIDs) > 0 {
		conditions = conditions.Or("brand_id IN ?", brandIDs)
	}
	if len(modelIDs) > 0 {
		conditions = conditions.Or("model_id IN ?", modelIDs)
	}
	if len(typeIDs) > 0 {
		conditions = conditions.Or("type_id IN ?", typeIDs)
	}

	var ownerIDs []uuid.UUID
	if err := query.Where(conditions).Distinct("owner_id").Pluck("owner_id", &ownerIDs).Error; err != nil {
		return nil, err
	}
	return ownerIDs, nil
}

func (r *repositoryImpl) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Photos").
		Preload("Brand").
		Preload("Model").
		Preload("Variant").
		Preload("Type")
}
