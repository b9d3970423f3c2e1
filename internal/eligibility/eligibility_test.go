package eligibility

import (
	"testing"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/google/uuid"
)

func TestCriteriaFromModelNil(t *testing.T) {
	criteria := CriteriaFromModel(nil)
	if !criteria.OpenToAll {
		t.Fatal("expected missing row to admit everyone")
	}
}

func TestCriteriaFromModelFlattens(t *testing.T) {
	brandID := uuid.New()
	typeID := uuid.New()
	criteria := CriteriaFromModel(&models.TripEligibility{
		OpenToAll: false,
		Brands:    []models.CarBrand{{ID: brandID}},
		Types:     []models.CarType{{ID: typeID}},
	})

	if criteria.OpenToAll {
		t.Fatal("expected restricted criteria")
	}
	if len(criteria.BrandIDs) != 1 || criteria.BrandIDs[0] != brandID {
		t.Fatalf("unexpected brand ids %v", criteria.BrandIDs)
	}
	if len(criteria.TypeIDs) != 1 || criteria.TypeIDs[0] != typeID {
		t.Fatalf("unexpected type ids %v", criteria.TypeIDs)
	}
}

func TestCarMatchesOpenToAll(t *testing.T) {
	if !CarMatches(nil, Criteria{OpenToAll: true}) {
		t.Fatal("open criteria must admit even car-less users")
	}
}

func TestCarMatchesNilCar(t *testing.T) {
	if CarMatches(nil, Criteria{BrandIDs: []uuid.UUID{uuid.New()}}) {
		t.Fatal("restricted criteria must reject users without a car")
	}
}

func TestCarMatchesAnyDimension(t *testing.T) {
	brandID := uuid.New()
	modelID := uuid.New()
	typeID := uuid.New()
	car := &models.Car{BrandID: &brandID, ModelID: &modelID, TypeID: &typeID}

	cases := []struct {
		name     string
		criteria Criteria
		want     bool
	}{
		{"brand match", Criteria{BrandIDs: []uuid.UUID{brandID}}, true},
		{"model match", Criteria{ModelIDs: []uuid.UUID{modelID}}, true},
		{"type match", Criteria{TypeIDs: []uuid.UUID{typeID}}, true},
		{"no match", Criteria{BrandIDs: []uuid.UUID{uuid.New()}, ModelIDs: []uuid.UUID{uuid.New()}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CarMatches(car, tc.criteria); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCarMatchesIgnoresNulledReferences(t *testing.T) {
	brandID := uuid.New()
	car := &models.Car{}

	if CarMatches(car, Criteria{BrandIDs: []uuid.UUID{brandID}}) {
		t.Fatal("a car whose catalog rows were deleted must not match")
	}
	if !CarMatches(car, Criteria{OpenToAll: true}) {
		t.Fatal("open criteria still admit cars with nulled references")
	}
}

func TestCriteriaEmpty(t *testing.T) {
	if !(Criteria{}).Empty() {
		t.Fatal("expected empty criteria")
	}
	if (Criteria{ModelIDs: []uuid.UUID{uuid.New()}}).Empty() {
		t.Fatal("expected non-empty criteria")
	}
}
