package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/convoyapp/convoy-backend/pkg/enums"
)

// TripNotification stores in-app notification payloads scoped to recipients.
type TripNotification struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID   uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index"`
	Type          enums.NotificationType `gorm:"type:notification_type;not null"`
	Title         string                 `gorm:"type:text;not null"`
	Message       string                 `gorm:"type:text;not null"`
	TripID        *uuid.UUID             `gorm:"column:trip_id;type:uuid;index"`
	RelatedUserID *uuid.UUID             `gorm:"column:related_user_id;type:uuid"`
	ReadAt        *time.Time             `gorm:"type:timestamptz"`
	CreatedAt     time.Time              `gorm:"type:timestamptz;default:now()"`
}
