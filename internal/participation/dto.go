package participation

import (
	"time"

	"github.com/convoyapp/convoy-backend/internal/users"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	"github.com/google/uuid"
)

// JoinRequest carries the optional note and emergency contact the joiner
// leaves for the organizer.
type JoinRequest struct {
	Message          *string `json:"message,omitempty" validate:"omitempty,max=500"`
	EmergencyContact *string `json:"emergency_contact,omitempty" validate:"omitempty,max=100"`
}

// UpdateStatusRequest carries the organizer's decision on a participant.
type UpdateStatusRequest struct {
	Status enums.ParticipantStatus `json:"status" validate:"required,oneof=pending confirmed declined cancelled"`
}

// ParticipantView is the public membership representation.
type ParticipantView struct {
	ID               uuid.UUID               `json:"id"`
	TripID           uuid.UUID               `json:"trip_id"`
	UserID           uuid.UUID               `json:"user_id"`
	Status           enums.ParticipantStatus `json:"status"`
	Message          *string                 `json:"message,omitempty"`
	EmergencyContact *string                 `json:"emergency_contact,omitempty"`
	User             *users.UserView         `json:"user,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

// FromModel maps a participant entity, including the user when preloaded.
func FromModel(p *models.TripParticipant) *ParticipantView {
	if p == nil {
		return nil
	}
	view := &ParticipantView{
		ID:               p.ID,
		TripID:           p.TripID,
		UserID:           p.UserID,
		Status:           p.Status,
		Message:          p.Message,
		EmergencyContact: p.EmergencyContact,
		CreatedAt:        p.CreatedAt,
	}
	if p.User != nil {
		view.User = users.FromModel(p.User)
	}
	return view
}
