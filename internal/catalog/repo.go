package catalog

import (
	"context"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes read access to the vehicle reference catalog.
type Repository interface {
	ListBrands(ctx context.Context) ([]models.CarBrand, error)
	ListBrandsWithModels(ctx context.Context) ([]models.CarBrand, map[uuid.UUID][]models.CarModel, error)
	ListModelsByBrand(ctx context.Context, brandID uuid.UUID) ([]models.CarModel, error)
	ListVariantsByModel(ctx context.Context, modelID uuid.UUID) ([]models.CarVariant, error)
	ListTypes(ctx context.Context) ([]models.CarType, error)
	BrandExists(ctx context.Context, id uuid.UUID) (bool, error)
	ModelExists(ctx context.Context, id uuid.UUID) (bool, error)
	VariantExists(ctx context.Context, id uuid.UUID) (bool, error)
	TypeExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListBrands(ctx context.Context) ([]models.CarBrand, error) {
	var brands []models.CarBrand
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *repositoryImpl) ListBrandsWithModels(ctx context.Context) ([]models.CarBrand, map[uuid.UUID][]models.CarModel, error) {
	brands, err := r.ListBrands(ctx)
	if err != nil {
		return nil, nil, err
	}

	var carModels []models.CarModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&carModels).Error; err != nil {
		return nil, nil, err
	}

	byBrand := make(map[uuid.UUID][]models.CarModel, len(brands))
	for _, m := range carModels {
		byBrand[m.BrandID] = append(byBrand[m.BrandID], m)
	}
	return brands, byBrand, nil
}

func (r *repositoryImpl) ListModelsByBrand(ctx context.Context, brandID uuid.UUID) ([]models.CarModel, error) {
	var carModels []models.CarModel
	if err := r.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("name ASC").
		Find(&carModels).Error; err != nil {
		return nil, err
	}
	return carModels, nil
}

func (r *repositoryImpl) ListVariantsByModel(ctx context.Context, modelID uuid.UUID) ([]models.CarVariant, error) {
	var variants []models.CarVariant
	if err := r.db.WithContext(ctx).
		Where("model_id = ?", modelID).
		Order("name ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *repositoryImpl) ListTypes(ctx context.Context) ([]models.CarType, error) {
	var carTypes []models.CarType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&carTypes).Error; err != nil {
		return nil, err
	}
	return carTypes, nil
}

func (r *repositoryImpl) BrandExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CarBrand{}, id)
}

func (r *repositoryImpl) ModelExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CarModel{}, id)
}

func (r *repositoryImpl) VariantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CarVariant{}, id)
}

func (r *repositoryImpl) TypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CarType{}, id)
}

func (r *repositoryImpl) exists(ctx context.Context, model any, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
