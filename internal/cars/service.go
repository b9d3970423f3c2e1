package cars

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/convoyapp/convoy-backend/internal/catalog"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MinPhotos and MaxPhotos bound how many photos a car carries at all times.
	MinPhotos = 2
	MaxPhotos = 5

	minYear = 1900
)

// Service defines vehicle registry operations scoped to the owning user.
type Service interface {
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]CarView, error)
	Register(ctx context.Context, ownerID uuid.UUID, req RegisterCarRequest) (*CarView, error)
	Get(ctx context.Context, ownerID, carID uuid.UUID) (*CarView, error)
	Update(ctx context.Context, ownerID, carID uuid.UUID, req UpdateCarRequest) (*CarView, error)
	Delete(ctx context.Context, ownerID, carID uuid.UUID) error
	AddPhoto(ctx context.Context, ownerID, carID uuid.UUID, req AddPhotoRequest) (*CarView, error)
	DeletePhoto(ctx context.Context, ownerID, carID, photoID uuid.UUID) (*CarView, error)
}

type service struct {
	db      *db.Client
	repo    Repository
	catalog catalog.Repository
}

// ServiceParams bundles the dependencies for the cars service.
type ServiceParams struct {
	DB          *db.Client
	Repo        Repository
	CatalogRepo catalog.Repository
}

// NewService constructs the cars service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("cars repository is required")
	}
	if params.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{db: params.DB, repo: params.Repo, catalog: params.CatalogRepo}, nil
}

func (s *service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]CarView, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cars")
	}
	views := make([]CarView, 0, len(rows))
	for i := range rows {
		views = append(views, *FromModel(&rows[i]))
	}
	return views, nil
}

func (s *service) Register(ctx context.Context, ownerID uuid.UUID, req RegisterCarRequest) (*CarView, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if len(req.Photos) < MinPhotos || len(req.Photos) > MaxPhotos {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("a car must have between %d and %d photos", MinPhotos, MaxPhotos))
	}
	if err := s.validateYear(req.Year); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Color) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "color is required")
	}
	if err := s.validateCatalogRefs(ctx, req.BrandID, req.ModelID, req.VariantID, req.TypeID); err != nil {
		return nil, err
	}

	car := &models.Car{
		OwnerID:   ownerID,
		BrandID:   &req.BrandID,
		ModelID:   &req.ModelID,
		VariantID: req.VariantID,
		TypeID:    &req.TypeID,
		Year:      req.Year,
		Color:     strings.TrimSpace(req.Color),
	}
	for _, photo := range req.Photos {
		car.Photos = append(car.Photos, models.CarPhoto{
			Data:        photo.Data,
			ContentType: photo.ContentType,
			Caption:     photo.Caption,
		})
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, car)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register car")
	}

	return s.Get(ctx, ownerID, car.ID)
}

func (s *service) Get(ctx context.Context, ownerID, carID uuid.UUID) (*CarView, error) {
	car, err := s.findOwned(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}
	return FromModel(car), nil
}

func (s *service) Update(ctx context.Context, ownerID, carID uuid.UUID, req UpdateCarRequest) (*CarView, error) {
	car, err := s.findOwned(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}

	if req.Year != nil {
		if err := s.validateYear(*req.Year); err != nil {
			return nil, err
		}
		car.Year = *req.Year
	}
	if req.Color != nil {
		color := strings.TrimSpace(*req.Color)
		if color == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "color is required")
		}
		car.Color = color
	}
	if req.VariantID != nil {
		exists, err := s.catalog.VariantExists(ctx, *req.VariantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup variant")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown variant")
		}
		car.VariantID = req.VariantID
	}

	var photos []models.CarPhoto
	if req.Photos != nil {
		if len(req.Photos) < MinPhotos || len(req.Photos) > MaxPhotos {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("a car must have between %d and %d photos", MinPhotos, MaxPhotos))
		}
		for _, photo := range req.Photos {
			if len(photo.Data) == 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo data is required")
			}
			photos = append(photos, models.CarPhoto{
				CarID:       carID,
				Data:        photo.Data,
				ContentType: photo.ContentType,
				Caption:     photo.Caption,
			})
		}
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, car); err != nil {
			return err
		}
		if photos == nil {
			return nil
		}
		return repo.ReplacePhotos(ctx, carID, photos)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update car")
	}
	return s.Get(ctx, ownerID, carID)
}

func (s *service) Delete(ctx context.Context, ownerID, carID uuid.UUID) error {
	if _, err := s.findOwned(ctx, ownerID, carID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, carID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete car")
	}
	return nil
}

func (s *service) AddPhoto(ctx context.Context, ownerID, carID uuid.UUID, req AddPhotoRequest) (*CarView, error) {
	if _, err := s.findOwned(ctx, ownerID, carID); err != nil {
		return nil, err
	}
	if len(req.Photo.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo data is required")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountPhotos(ctx, carID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count photos")
		}
		if count >= MaxPhotos {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("a car cannot have more than %d photos", MaxPhotos))
		}
		return repo.AddPhoto(ctx, &models.CarPhoto{
			CarID:       carID,
			Data:        req.Photo.Data,
			ContentType: req.Photo.ContentType,
			Caption:     req.Photo.Caption,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add photo")
	}

	return s.Get(ctx, ownerID, carID)
}

func (s *service) DeletePhoto(ctx context.Context, ownerID, carID, photoID uuid.UUID) (*CarView, error) {
	if _, err := s.findOwned(ctx, ownerID, carID); err != nil {
		return nil, err
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountPhotos(ctx, carID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count photos")
		}
		if count <= MinPhotos {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("a car must keep at least %d photos", MinPhotos))
		}
		deleted, err := repo.DeletePhoto(ctx, carID, photoID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete photo")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete photo")
	}

	return s.Get(ctx, ownerID, carID)
}

func (s *service) findOwned(ctx context.Context, ownerID, carID uuid.UUID) (*models.Car, error) {
	if ownerID == uuid.Nil || carID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "car id required")
	}
	car, err := s.repo.FindByID(ctx, carID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup car")
	}
	if car.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
	}
	return car, nil
}

func (s *service) validateYear(year int) error {
	maxYear := time.Now().UTC().Year() + 1
	if year < minYear || year > maxYear {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("year must be between %d and %d", minYear, maxYear))
	}
	return nil
}

func (s *service) validateCatalogRefs(ctx context.Context, brandID, modelID uuid.UUID, variantID *uuid.UUID, typeID uuid.UUID) error {
	checks := []struct {
		name   string
		exists func(context.Context, uuid.UUID) (bool, error)
		id     uuid.UUID
	}{
		{"brand", s.catalog.BrandExists, brandID},
		{"model", s.catalog.ModelExists, modelID},
		{"type", s.catalog.TypeExists, typeID},
	}
	for _, check := range checks {
		ok, err := check.exists(ctx, check.id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup "+check.name)
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown "+check.name)
		}
	}
	if variantID != nil {
		ok, err := s.catalog.VariantExists(ctx, *variantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup variant")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown variant")
		}
	}
	return nil
}
