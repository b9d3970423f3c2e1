package enums

import "fmt"

// UserTier maps to the user_tier enum in Postgres.
type UserTier string

const (
	UserTierFree       UserTier = "free"
	UserTierPremium    UserTier = "premium"
	UserTierEnterprise UserTier = "enterprise"
	UserTierAdmin      UserTier = "admin"
)

var validUserTiers = []UserTier{
	UserTierFree,
	UserTierPremium,
	UserTierEnterprise,
	UserTierAdmin,
}

func (t UserTier) IsValid() bool {
	for _, candidate := range validUserTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseUserTier converts raw strings into UserTier.
func ParseUserTier(value string) (UserTier, error) {
	for _, candidate := range validUserTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user tier %q", value)
}
