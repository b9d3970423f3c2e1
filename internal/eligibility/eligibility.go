package eligibility

import (
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Criteria is the flattened form of a trip's vehicle requirements.
type Criteria struct {
	OpenToAll bool
	BrandIDs  []uuid.UUID
	ModelIDs  []uuid.UUID
	TypeIDs   []uuid.UUID
}

// CriteriaFromModel flattens the persisted eligibility row. A missing row
// admits everyone.
func CriteriaFromModel(e *models.TripEligibility) Criteria {
	if e == nil {
		return Criteria{OpenToAll: true}
	}
	c := Criteria{OpenToAll: e.OpenToAll}
	for _, b := range e.Brands {
		c.BrandIDs = append(c.BrandIDs, b.ID)
	}
	for _, m := range e.Models {
		c.ModelIDs = append(c.ModelIDs, m.ID)
	}
	for _, t := range e.Types {
		c.TypeIDs = append(c.TypeIDs, t.ID)
	}
	return c
}

// Empty reports whether no concrete criteria are set.
func (c Criteria) Empty() bool {
	return len(c.BrandIDs) == 0 && len(c.ModelIDs) == 0 && len(c.TypeIDs) == 0
}

// CarMatches reports whether a vehicle satisfies the criteria. A single
// match on brand, model, or type is sufficient. Catalog references nulled
// by a taxonomy deletion never match.
func CarMatches(car *models.Car, c Criteria) bool {
	if c.OpenToAll {
		return true
	}
	if car == nil {
		return false
	}
	if containsID(c.BrandIDs, car.BrandID) {
		return true
	}
	if containsID(c.ModelIDs, car.ModelID) {
		return true
	}
	if containsID(c.TypeIDs, car.TypeID) {
		return true
	}
	return false
}

func containsID(ids []uuid.UUID, id *uuid.UUID) bool {
	if id == nil {
		return false
	}
	for _, candidate := range ids {
		if candidate == *id {
			return true
		}
	}
	return false
}
