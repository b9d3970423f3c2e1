package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeNewTrip           NotificationType = "new_trip"
	NotificationTypeTripUpdated       NotificationType = "trip_updated"
	NotificationTypeTripCancelled     NotificationType = "trip_cancelled"
	NotificationTypeJoinRequest       NotificationType = "join_request"
	NotificationTypeRequestApproved   NotificationType = "request_approved"
	NotificationTypeRequestDeclined   NotificationType = "request_declined"
	NotificationTypeParticipantJoined NotificationType = "participant_joined"
	NotificationTypeParticipantLeft   NotificationType = "participant_left"
	NotificationTypeTripReminder      NotificationType = "trip_reminder"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeNewTrip,
	NotificationTypeTripUpdated,
	NotificationTypeTripCancelled,
	NotificationTypeJoinRequest,
	NotificationTypeRequestApproved,
	NotificationTypeRequestDeclined,
	NotificationTypeParticipantJoined,
	NotificationTypeParticipantLeft,
	NotificationTypeTripReminder,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
