package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/convoyapp/convoy-backend/pkg/enums"
)

// RoadTrip is an organizer-owned trip listing.
type RoadTrip struct {
	ID              uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizerID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	Title           string               `gorm:"type:text;not null"`
	Description     string               `gorm:"type:text;not null"`
	Destination     string               `gorm:"type:text;not null"`
	MeetingPoint    string               `gorm:"column:meeting_point;type:text;not null"`
	DepartureTime   time.Time            `gorm:"column:departure_time;type:timestamptz;not null;index"`
	ReturnTime      *time.Time           `gorm:"column:return_time;type:timestamptz"`
	MaxParticipants int                  `gorm:"column:max_participants;not null;default:20"`
	Difficulty      enums.TripDifficulty `gorm:"type:trip_difficulty;not null;default:moderate"`
	Status          enums.TripStatus     `gorm:"type:trip_status;not null;default:published"`

	Organizer    *User             `gorm:"foreignKey:OrganizerID"`
	Eligibility  *TripEligibility  `gorm:"foreignKey:TripID"`
	Participants []TripParticipant `gorm:"foreignKey:TripID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
