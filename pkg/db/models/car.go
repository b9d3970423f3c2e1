package models

import (
	"time"

	"github.com/google/uuid"
)

// Car is a vehicle registered by an owner against the reference catalog.
// Catalog references go null when their taxonomy row is deleted, so they
// stay nullable here.
type Car struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	BrandID   *uuid.UUID `gorm:"type:uuid"`
	ModelID   *uuid.UUID `gorm:"type:uuid"`
	VariantID *uuid.UUID `gorm:"type:uuid"`
	TypeID    *uuid.UUID `gorm:"type:uuid"`
	Year      int        `gorm:"not null"`
	Color     string     `gorm:"type:text;not null"`

	Owner   *User       `gorm:"foreignKey:OwnerID"`
	Brand   *CarBrand   `gorm:"foreignKey:BrandID"`
	Model   *CarModel   `gorm:"foreignKey:ModelID"`
	Variant *CarVariant `gorm:"foreignKey:VariantID"`
	Type    *CarType    `gorm:"foreignKey:TypeID"`
	Photos  []CarPhoto  `gorm:"foreignKey:CarID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CarPhoto stores a photo payload attached to a car. A car always keeps
// between two and five photos.
type CarPhoto struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CarID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Data        []byte    `gorm:"type:bytea;not null"`
	ContentType string    `gorm:"column:content_type;type:text;not null"`
	Caption     *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
