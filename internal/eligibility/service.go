package eligibility

import (
	"context"
	"errors"
	"fmt"

	"github.com/convoyapp/convoy-backend/pkg/db/models"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service answers eligibility questions and resolves notification audiences.
type Service interface {
	IsUserEligible(ctx context.Context, userID uuid.UUID, criteria Criteria) (bool, error)
	RecipientsForTrip(ctx context.Context, organizerID uuid.UUID, criteria Criteria) ([]uuid.UUID, error)
}

type carFinder interface {
	FirstByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Car, error)
	ListOwnerIDsMatching(ctx context.Context, brandIDs, modelIDs, typeIDs []uuid.UUID) ([]uuid.UUID, error)
}

type userLister interface {
	ListActiveIDs(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	cars  carFinder
	users userLister
}

// NewService constructs the eligibility service.
func NewService(cars carFinder, users userLister) (Service, error) {
	if cars == nil {
		return nil, fmt.Errorf("cars repository is required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{cars: cars, users: users}, nil
}

// IsUserEligible evaluates the user's earliest-registered car against the
// criteria. Users without a car only pass open trips.
func (s *service) IsUserEligible(ctx context.Context, userID uuid.UUID, criteria Criteria) (bool, error) {
	if criteria.OpenToAll {
		return true, nil
	}
	if userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	car, err := s.cars.FirstByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup car")
	}
	return CarMatches(car, criteria), nil
}

// RecipientsForTrip resolves which users should hear about a trip. Open or
// criteria-less trips reach every active user except the organizer;
// otherwise the audience is owners of matching cars, minus the organizer.
func (s *service) RecipientsForTrip(ctx context.Context, organizerID uuid.UUID, criteria Criteria) ([]uuid.UUID, error) {
	if criteria.OpenToAll || criteria.Empty() {
		ids, err := s.users.ListActiveIDs(ctx, organizerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
		}
		return ids, nil
	}

	ownerIDs, err := s.cars.ListOwnerIDsMatching(ctx, criteria.BrandIDs, criteria.ModelIDs, criteria.TypeIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match car owners")
	}

	recipients := make([]uuid.UUID, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		if id == organizerID {
			continue
		}
		recipients = append(recipients, id)
	}
	return recipients, nil
}
