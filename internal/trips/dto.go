package trips

import (
	"time"

	"github.com/convoyapp/convoy-backend/internal/eligibility"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	"github.com/google/uuid"
)

// EligibilityInput carries the vehicle criteria attached on create/update.
type EligibilityInput struct {
	OpenToAll *bool       `json:"open_to_all,omitempty"`
	BrandIDs  []uuid.UUID `json:"brand_ids,omitempty"`
	ModelIDs  []uuid.UUID `json:"model_ids,omitempty"`
	TypeIDs   []uuid.UUID `json:"type_ids,omitempty"`
}

// CreateTripRequest is the payload for publishing a trip.
type CreateTripRequest struct {
	Title           string                `json:"title" validate:"required"`
	Description     string                `json:"description" validate:"required"`
	Destination     string                `json:"destination" validate:"required"`
	MeetingPoint    string                `json:"meeting_point" validate:"required"`
	DepartureTime   time.Time             `json:"departure_time" validate:"required"`
	ReturnTime      *time.Time            `json:"return_time,omitempty"`
	MaxParticipants *int                  `json:"max_participants,omitempty"`
	Difficulty      *enums.TripDifficulty `json:"difficulty,omitempty"`
	Status          *enums.TripStatus     `json:"status,omitempty"`
	Eligibility     *EligibilityInput     `json:"eligibility,omitempty"`
}

// UpdateTripRequest carries mutable trip fields.
type UpdateTripRequest struct {
	Title           *string               `json:"title,omitempty"`
	Description     *string               `json:"description,omitempty"`
	Destination     *string               `json:"destination,omitempty"`
	MeetingPoint    *string               `json:"meeting_point,omitempty"`
	DepartureTime   *time.Time            `json:"departure_time,omitempty"`
	ReturnTime      *time.Time            `json:"return_time,omitempty"`
	MaxParticipants *int                  `json:"max_participants,omitempty"`
	Difficulty      *enums.TripDifficulty `json:"difficulty,omitempty"`
	Status          *enums.TripStatus     `json:"status,omitempty"`
	Eligibility     *EligibilityInput     `json:"eligibility,omitempty"`
}

// EligibilityView is the public criteria representation.
type EligibilityView struct {
	OpenToAll bool        `json:"open_to_all"`
	BrandIDs  []uuid.UUID `json:"brand_ids"`
	ModelIDs  []uuid.UUID `json:"model_ids"`
	TypeIDs   []uuid.UUID `json:"type_ids"`
}

// TripView is the public trip representation.
type TripView struct {
	ID              uuid.UUID            `json:"id"`
	OrganizerID     uuid.UUID            `json:"organizer_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Destination     string               `json:"destination"`
	MeetingPoint    string               `json:"meeting_point"`
	DepartureTime   time.Time            `json:"departure_time"`
	ReturnTime      *time.Time           `json:"return_time,omitempty"`
	MaxParticipants int                  `json:"max_participants"`
	Difficulty      enums.TripDifficulty `json:"difficulty"`
	Status          enums.TripStatus     `json:"status"`
	ConfirmedCount  int64                `json:"confirmed_count"`
	Eligibility     *EligibilityView     `json:"eligibility,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// FromModel maps a trip entity plus its preloaded eligibility.
func FromModel(trip *models.RoadTrip, confirmed int64) *TripView {
	if trip == nil {
		return nil
	}
	view := &TripView{
		ID:              trip.ID,
		OrganizerID:     trip.OrganizerID,
		Title:           trip.Title,
		Description:     trip.Description,
		Destination:     trip.Destination,
		MeetingPoint:    trip.MeetingPoint,
		DepartureTime:   trip.DepartureTime,
		ReturnTime:      trip.ReturnTime,
		MaxParticipants: trip.MaxParticipants,
		Difficulty:      trip.Difficulty,
		Status:          trip.Status,
		ConfirmedCount:  confirmed,
		CreatedAt:       trip.CreatedAt,
		UpdatedAt:       trip.UpdatedAt,
	}
	if trip.Eligibility != nil {
		criteria := eligibility.CriteriaFromModel(trip.Eligibility)
		view.Eligibility = &EligibilityView{
			OpenToAll: criteria.OpenToAll,
			BrandIDs:  orEmpty(criteria.BrandIDs),
			ModelIDs:  orEmpty(criteria.ModelIDs),
			TypeIDs:   orEmpty(criteria.TypeIDs),
		}
	}
	return view
}

func orEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// ListParams configures trip listing filters and pagination. MemberID widens
// the match to trips the user participates in.
type ListParams struct {
	Status       *enums.TripStatus
	Difficulty   *enums.TripDifficulty
	Destination  string
	Search       string
	UpcomingOnly bool
	OrganizerID  *uuid.UUID
	MemberID     *uuid.UUID
	Limit        int
	Cursor       string
}

// ListResult wraps returned trips and the cursor for the next page.
type ListResult struct {
	Items  []TripView `json:"items"`
	Cursor string     `json:"cursor"`
}
