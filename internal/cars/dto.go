package cars

import (
	"time"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/google/uuid"
)

// PhotoInput carries one photo payload on car registration or photo add.
type PhotoInput struct {
	Data        []byte  `json:"data" validate:"required"`
	ContentType string  `json:"content_type" validate:"required"`
	Caption     *string `json:"caption,omitempty" validate:"omitempty,max=200"`
}

// RegisterCarRequest is the payload for registering a vehicle.
type RegisterCarRequest struct {
	BrandID   uuid.UUID    `json:"brand_id" validate:"required"`
	ModelID   uuid.UUID    `json:"model_id" validate:"required"`
	VariantID *uuid.UUID   `json:"variant_id,omitempty"`
	TypeID    uuid.UUID    `json:"type_id" validate:"required"`
	Year      int          `json:"year" validate:"required"`
	Color     string       `json:"color" validate:"required,max=50"`
	Photos    []PhotoInput `json:"photos" validate:"required,min=2,max=5,dive"`
}

// UpdateCarRequest carries mutable vehicle fields. Providing photos swaps
// the full set in one step.
type UpdateCarRequest struct {
	VariantID *uuid.UUID   `json:"variant_id,omitempty"`
	Year      *int         `json:"year,omitempty"`
	Color     *string      `json:"color,omitempty" validate:"omitempty,max=50"`
	Photos    []PhotoInput `json:"photos,omitempty" validate:"omitempty,min=2,max=5,dive"`
}

// AddPhotoRequest attaches one more photo to a car.
type AddPhotoRequest struct {
	Photo PhotoInput `json:"photo" validate:"required"`
}

// PhotoView is the public photo representation.
type PhotoView struct {
	ID          uuid.UUID `json:"id"`
	Data        []byte    `json:"data"`
	ContentType string    `json:"content_type"`
	Caption     *string   `json:"caption,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CarView is the public vehicle representation. Catalog ids are absent when
// the referenced taxonomy row was deleted.
type CarView struct {
	ID        uuid.UUID   `json:"id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	BrandID   *uuid.UUID  `json:"brand_id,omitempty"`
	Brand     string      `json:"brand,omitempty"`
	ModelID   *uuid.UUID  `json:"model_id,omitempty"`
	Model     string      `json:"model,omitempty"`
	VariantID *uuid.UUID  `json:"variant_id,omitempty"`
	Variant   *string     `json:"variant,omitempty"`
	TypeID    *uuid.UUID  `json:"type_id,omitempty"`
	Type      string      `json:"type,omitempty"`
	Year      int         `json:"year"`
	Color     string      `json:"color"`
	Photos    []PhotoView `json:"photos"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FromModel maps a car entity plus its preloaded associations.
func FromModel(car *models.Car) *CarView {
	if car == nil {
		return nil
	}
	view := &CarView{
		ID:        car.ID,
		OwnerID:   car.OwnerID,
		BrandID:   car.BrandID,
		ModelID:   car.ModelID,
		VariantID: car.VariantID,
		TypeID:    car.TypeID,
		Year:      car.Year,
		Color:     car.Color,
		CreatedAt: car.CreatedAt,
		UpdatedAt: car.UpdatedAt,
	}
	if car.Brand != nil {
		view.Brand = car.Brand.Name
	}
	if car.Model != nil {
		view.Model = car.Model.Name
	}
	if car.Variant != nil {
		view.Variant = &car.Variant.Name
	}
	if car.Type != nil {
		view.Type = car.Type.Name
	}
	view.Photos = make([]PhotoView, 0, len(car.Photos))
	for _, photo := range car.Photos {
		view.Photos = append(view.Photos, PhotoView{
			ID:          photo.ID,
			Data:        photo.Data,
			ContentType: photo.ContentType,
			Caption:     photo.Caption,
			CreatedAt:   photo.CreatedAt,
		})
	}
	return view
}
