package users

import (
	"time"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	"github.com/google/uuid"
)

// UserView is the public representation returned to clients.
type UserView struct {
	ID                uuid.UUID      `json:"id"`
	Email             string         `json:"email"`
	FirstName         string         `json:"first_name"`
	LastName          string         `json:"last_name"`
	Phone             *string        `json:"phone,omitempty"`
	Tier              enums.UserTier `json:"tier"`
	SubscriptionStart *time.Time     `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time     `json:"subscription_end,omitempty"`
	LastLoginAt       *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// FromModel maps the persistence entity to its public view.
func FromModel(user *models.User) *UserView {
	if user == nil {
		return nil
	}
	return &UserView{
		ID:                user.ID,
		Email:             user.Email,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Phone:             user.Phone,
		Tier:              user.Tier,
		SubscriptionStart: user.SubscriptionStart,
		SubscriptionEnd:   user.SubscriptionEnd,
		LastLoginAt:       user.LastLoginAt,
		CreatedAt:         user.CreatedAt,
	}
}

// UpdateProfileRequest captures mutable profile fields.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// ChangePasswordRequest carries the current and replacement credentials.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// AvailabilityResult reports whether an identity attribute is free to use.
type AvailabilityResult struct {
	Available bool `json:"available"`
}
