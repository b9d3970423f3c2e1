package models

import (
	"time"

	"github.com/google/uuid"
)

// CarBrand is a manufacturer entry in the reference catalog.
type CarBrand struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null;uniqueIndex"`
	Country   *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// CarModel belongs to a brand.
type CarModel struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BrandID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_car_models_brand_name"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:uq_car_models_brand_name"`
	Brand     *CarBrand `gorm:"foreignKey:BrandID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// CarVariant is a trim level under a model.
type CarVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ModelID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_car_variants_model_name"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:uq_car_variants_model_name"`
	Model     *CarModel `gorm:"foreignKey:ModelID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// CarType is a body classification (sedan, SUV, coupe).
type CarType struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
