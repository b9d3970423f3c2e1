package enums

import "fmt"

// ParticipantStatus maps to the participant_status enum in Postgres.
type ParticipantStatus string

const (
	ParticipantStatusPending   ParticipantStatus = "pending"
	ParticipantStatusConfirmed ParticipantStatus = "confirmed"
	ParticipantStatusDeclined  ParticipantStatus = "declined"
	ParticipantStatusCancelled ParticipantStatus = "cancelled"
)

var validParticipantStatuses = []ParticipantStatus{
	ParticipantStatusPending,
	ParticipantStatusConfirmed,
	ParticipantStatusDeclined,
	ParticipantStatusCancelled,
}

func (s ParticipantStatus) IsValid() bool {
	for _, candidate := range validParticipantStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseParticipantStatus converts raw strings into ParticipantStatus.
func ParseParticipantStatus(value string) (ParticipantStatus, error) {
	for _, candidate := range validParticipantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid participant status %q", value)
}
