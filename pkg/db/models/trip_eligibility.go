package models

import (
	"time"

	"github.com/google/uuid"
)

// TripEligibility holds the vehicle criteria attached to a trip. An empty
// criteria set with OpenToAll false still admits nobody, so creation defaults
// to OpenToAll true when no criteria arrive.
type TripEligibility struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TripID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	OpenToAll bool      `gorm:"column:open_to_all;not null;default:true"`

	Brands []CarBrand `gorm:"many2many:trip_eligibility_brands"`
	Models []CarModel `gorm:"many2many:trip_eligibility_models"`
	Types  []CarType  `gorm:"many2many:trip_eligibility_types"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
