package enums

import "fmt"

// TripStatus maps to the trip_status enum in Postgres.
type TripStatus string

const (
	TripStatusDraft     TripStatus = "draft"
	TripStatusPublished TripStatus = "published"
	TripStatusCancelled TripStatus = "cancelled"
	TripStatusCompleted TripStatus = "completed"
)

var validTripStatuses = []TripStatus{
	TripStatusDraft,
	TripStatusPublished,
	TripStatusCancelled,
	TripStatusCompleted,
}

func (s TripStatus) IsValid() bool {
	for _, candidate := range validTripStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTripStatus converts raw strings into TripStatus.
func ParseTripStatus(value string) (TripStatus, error) {
	for _, candidate := range validTripStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trip status %q", value)
}

// TripDifficulty maps to the trip_difficulty enum in Postgres.
type TripDifficulty string

const (
	TripDifficultyEasy        TripDifficulty = "easy"
	TripDifficultyModerate    TripDifficulty = "moderate"
	TripDifficultyChallenging TripDifficulty = "challenging"
)

var validTripDifficulties = []TripDifficulty{
	TripDifficultyEasy,
	TripDifficultyModerate,
	TripDifficultyChallenging,
}

func (d TripDifficulty) IsValid() bool {
	for _, candidate := range validTripDifficulties {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseTripDifficulty converts raw strings into TripDifficulty.
func ParseTripDifficulty(value string) (TripDifficulty, error) {
	for _, candidate := range validTripDifficulties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trip difficulty %q", value)
}
