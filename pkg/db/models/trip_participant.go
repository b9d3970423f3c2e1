package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/convoyapp/convoy-backend/pkg/enums"
)

// TripParticipant is one user's membership record on a trip.
type TripParticipant struct {
	ID               uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TripID           uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:uq_trip_participants_trip_user;index"`
	UserID           uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:uq_trip_participants_trip_user"`
	Status           enums.ParticipantStatus `gorm:"type:participant_status;not null;default:confirmed"`
	Message          *string                 `gorm:"type:text"`
	EmergencyContact *string                 `gorm:"column:emergency_contact;type:text"`

	Trip *RoadTrip `gorm:"foreignKey:TripID"`
	User *User     `gorm:"foreignKey:UserID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
