package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service defines read operations over the vehicle reference catalog.
type Service interface {
	Brands(ctx context.Context) ([]BrandView, error)
	BrandsWithModels(ctx context.Context) ([]BrandWithModelsView, error)
	ModelsByBrand(ctx context.Context, brandID uuid.UUID) ([]ModelView, error)
	VariantsByModel(ctx context.Context, modelID uuid.UUID) ([]VariantView, error)
	Types(ctx context.Context) ([]TypeView, error)
}

// BrandView is the public brand representation.
type BrandView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Country   *string   `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ModelView is the public model representation.
type ModelView struct {
	ID      uuid.UUID `json:"id"`
	BrandID uuid.UUID `json:"brand_id"`
	Name    string    `json:"name"`
}

// VariantView is the public variant representation.
type VariantView struct {
	ID      uuid.UUID `json:"id"`
	ModelID uuid.UUID `json:"model_id"`
	Name    string    `json:"name"`
}

// TypeView is the public body-type representation.
type TypeView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BrandWithModelsView nests a brand's models under the brand.
type BrandWithModelsView struct {
	BrandView
	Models []ModelView `json:"models"`
}

type service struct {
	repo Repository
}

// NewService constructs the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Brands(ctx context.Context) ([]BrandView, error) {
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	views := make([]BrandView, 0, len(brands))
	for _, b := range brands {
		views = append(views, brandView(b))
	}
	return views, nil
}

func (s *service) BrandsWithModels(ctx context.Context) ([]BrandWithModelsView, error) {
	brands, byBrand, err := s.repo.ListBrandsWithModels(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands with models")
	}
	views := make([]BrandWithModelsView, 0, len(brands))
	for _, b := range brands {
		nested := make([]ModelView, 0, len(byBrand[b.ID]))
		for _, m := range byBrand[b.ID] {
			nested = append(nested, modelView(m))
		}
		views = append(views, BrandWithModelsView{BrandView: brandView(b), Models: nested})
	}
	return views, nil
}

func (s *service) ModelsByBrand(ctx context.Context, brandID uuid.UUID) ([]ModelView, error) {
	if brandID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand id required")
	}
	exists, err := s.repo.BrandExists(ctx, brandID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup brand")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
	}

	carModels, err := s.repo.ListModelsByBrand(ctx, brandID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list models")
	}
	views := make([]ModelView, 0, len(carModels))
	for _, m := range carModels {
		views = append(views, modelView(m))
	}
	return views, nil
}

func (s *service) VariantsByModel(ctx context.Context, modelID uuid.UUID) ([]VariantView, error) {
	if modelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model id required")
	}
	exists, err := s.repo.ModelExists(ctx, modelID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup model")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "model not found")
	}

	variants, err := s.repo.ListVariantsByModel(ctx, modelID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	views := make([]VariantView, 0, len(variants))
	for _, v := range variants {
		views = append(views, VariantView{ID: v.ID, ModelID: v.ModelID, Name: v.Name})
	}
	return views, nil
}

func (s *service) Types(ctx context.Context) ([]TypeView, error) {
	carTypes, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list types")
	}
	views := make([]TypeView, 0, len(carTypes))
	for _, t := range carTypes {
		views = append(views, TypeView{ID: t.ID, Name: t.Name})
	}
	return views, nil
}

func brandView(b models.CarBrand) BrandView {
	return BrandView{ID: b.ID, Name: b.Name, Country: b.Country, CreatedAt: b.CreatedAt}
}

func modelView(m models.CarModel) ModelView {
	return ModelView{ID: m.ID, BrandID: m.BrandID, Name: m.Name}
}
