package participation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/convoyapp/convoy-backend/internal/eligibility"
	"github.com/convoyapp/convoy-backend/internal/trips"
	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/convoyapp/convoy-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeTripsRepo struct {
	trips map[uuid.UUID]*models.RoadTrip
}

func (f *fakeTripsRepo) WithTx(tx *gorm.DB) trips.Repository { return f }

func (f *fakeTripsRepo) Create(ctx context.Context, trip *models.RoadTrip) error {
	f.trips[trip.ID] = trip
	return nil
}

func (f *fakeTripsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.RoadTrip, error) {
	trip, ok := f.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return trip, nil
}

func (f *fakeTripsRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RoadTrip, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeTripsRepo) List(ctx context.Context, params trips.ListTripsParams) ([]models.RoadTrip, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeTripsRepo) Update(ctx context.Context, trip *models.RoadTrip) error {
	f.trips[trip.ID] = trip
	return nil
}

func (f *fakeTripsRepo) ReplaceEligibility(ctx context.Context, elig *models.TripEligibility) error {
	return nil
}

func (f *fakeTripsRepo) ListDepartingBetween(ctx context.Context, from, to time.Time) ([]models.RoadTrip, error) {
	return nil, nil
}

type fakeParticipationRepo struct {
	byID     map[uuid.UUID]*models.TripParticipant
	statuses map[uuid.UUID]enums.ParticipantStatus
}

func newFakeParticipationRepo() *fakeParticipationRepo {
	return &fakeParticipationRepo{
		byID:     make(map[uuid.UUID]*models.TripParticipant),
		statuses: make(map[uuid.UUID]enums.ParticipantStatus),
	}
}

func (f *fakeParticipationRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeParticipationRepo) Create(ctx context.Context, participant *models.TripParticipant) error {
	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}
	f.byID[participant.ID] = participant
	return nil
}

func (f *fakeParticipationRepo) Find(ctx context.Context, tripID, userID uuid.UUID) (*models.TripParticipant, error) {
	for _, p := range f.byID {
		if p.TripID == tripID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeParticipationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.TripParticipant, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeParticipationRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.TripParticipant, error) {
	var out []models.TripParticipant
	for _, p := range f.byID {
		if p.TripID == tripID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeParticipationRepo) ListConfirmedUserIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, p := range f.byID {
		if p.TripID == tripID && p.Status == enums.ParticipantStatusConfirmed {
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

func (f *fakeParticipationRepo) CountConfirmed(ctx context.Context, tripID uuid.UUID) (int64, error) {
	var count int64
	for _, p := range f.byID {
		if p.TripID == tripID && p.Status == enums.ParticipantStatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (f *fakeParticipationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ParticipantStatus) error {
	if p, ok := f.byID[id]; ok {
		p.Status = status
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeParticipationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakeEligibility struct {
	eligible bool
}

func (f *fakeEligibility) IsUserEligible(ctx context.Context, userID uuid.UUID, criteria eligibility.Criteria) (bool, error) {
	return f.eligible, nil
}

type fakeFanout struct {
	joined   []uuid.UUID
	left     []uuid.UUID
	statuses []enums.ParticipantStatus
}

func (f *fakeFanout) TripPublished(ctx context.Context, trip *models.RoadTrip, criteria eligibility.Criteria) error {
	return nil
}

func (f *fakeFanout) TripUpdated(ctx context.Context, trip *models.RoadTrip) error { return nil }

func (f *fakeFanout) TripCancelled(ctx context.Context, trip *models.RoadTrip) error { return nil }

func (f *fakeFanout) ParticipantJoined(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID) error {
	f.joined = append(f.joined, userID)
	return nil
}

func (f *fakeFanout) ParticipantLeft(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID) error {
	f.left = append(f.left, userID)
	return nil
}

func (f *fakeFanout) StatusChanged(ctx context.Context, trip *models.RoadTrip, userID uuid.UUID, status enums.ParticipantStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func newTestDBClient(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, nil)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type serviceFixture struct {
	svc         Service
	trips       *fakeTripsRepo
	repo        *fakeParticipationRepo
	eligibility *fakeEligibility
	fanout      *fakeFanout
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	tripsRepo := &fakeTripsRepo{trips: make(map[uuid.UUID]*models.RoadTrip)}
	repo := newFakeParticipationRepo()
	elig := &fakeEligibility{eligible: true}
	fan := &fakeFanout{}
	svc, err := NewService(ServiceParams{
		DB:          newTestDBClient(t),
		Repo:        repo,
		TripsRepo:   tripsRepo,
		Eligibility: elig,
		Fanout:      fan,
		Config:      config.TripsConfig{LeaveCutoff: 24 * time.Hour},
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return &serviceFixture{svc: svc, trips: tripsRepo, repo: repo, eligibility: elig, fanout: fan}
}

func (fx *serviceFixture) seedTrip(t *testing.T, mutate func(*models.RoadTrip)) *models.RoadTrip {
	t.Helper()
	trip := &models.RoadTrip{
		ID:              uuid.New(),
		OrganizerID:     uuid.New(),
		Title:           "Desert crossing",
		DepartureTime:   time.Now().UTC().Add(96 * time.Hour),
		MaxParticipants: 2,
		Status:          enums.TripStatusPublished,
	}
	if mutate != nil {
		mutate(trip)
	}
	fx.trips.trips[trip.ID] = trip
	return trip
}

func (fx *serviceFixture) seedParticipant(t *testing.T, tripID, userID uuid.UUID, status enums.ParticipantStatus) *models.TripParticipant {
	t.Helper()
	p := &models.TripParticipant{ID: uuid.New(), TripID: tripID, UserID: userID, Status: status}
	fx.repo.byID[p.ID] = p
	return p
}

func TestJoinConfirmsImmediately(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	user := uuid.New()

	view, err := fx.svc.Join(context.Background(), trip.ID, user, JoinRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != enums.ParticipantStatusConfirmed {
		t.Fatalf("joining confirms immediately, got %s", view.Status)
	}
	if len(fx.fanout.joined) != 1 || fx.fanout.joined[0] != user {
		t.Fatalf("expected join fanout for %s, got %v", user, fx.fanout.joined)
	}
}

func TestJoinStoresMessageAndEmergencyContact(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	user := uuid.New()
	message := "Bringing a co-driver and a full toolkit"
	contact := "Alex +33 6 12 34 56 78"

	view, err := fx.svc.Join(context.Background(), trip.ID, user, JoinRequest{
		Message:          &message,
		EmergencyContact: &contact,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Message == nil || *view.Message != message {
		t.Fatalf("expected message %q, got %v", message, view.Message)
	}
	if view.EmergencyContact == nil || *view.EmergencyContact != contact {
		t.Fatalf("expected emergency contact %q, got %v", contact, view.EmergencyContact)
	}

	stored, err := fx.repo.Find(context.Background(), trip.ID, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Message == nil || *stored.Message != message {
		t.Fatalf("message not persisted, got %v", stored.Message)
	}
	if stored.EmergencyContact == nil || *stored.EmergencyContact != contact {
		t.Fatalf("emergency contact not persisted, got %v", stored.EmergencyContact)
	}
}

func TestJoinRejectsDuplicate(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	user := uuid.New()
	fx.seedParticipant(t, trip.ID, user, enums.ParticipantStatusConfirmed)

	_, err := fx.svc.Join(context.Background(), trip.ID, user, JoinRequest{})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", typed.Code())
	}
	if typed.Message() != "You are already participating in this trip" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestJoinRejectsFullTrip(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, func(trip *models.RoadTrip) { trip.MaxParticipants = 1 })
	fx.seedParticipant(t, trip.ID, uuid.New(), enums.ParticipantStatusConfirmed)

	_, err := fx.svc.Join(context.Background(), trip.ID, uuid.New(), JoinRequest{})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if pkgerrors.As(err).Message() != "This trip is full" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestJoinIgnoresPendingWhenCountingCapacity(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, func(trip *models.RoadTrip) { trip.MaxParticipants = 1 })
	fx.seedParticipant(t, trip.ID, uuid.New(), enums.ParticipantStatusPending)

	if _, err := fx.svc.Join(context.Background(), trip.ID, uuid.New(), JoinRequest{}); err != nil {
		t.Fatalf("pending members do not take seats, got %v", err)
	}
}

func TestJoinRejectsDepartedTrip(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, func(trip *models.RoadTrip) {
		trip.DepartureTime = time.Now().UTC().Add(-time.Hour)
	})

	_, err := fx.svc.Join(context.Background(), trip.ID, uuid.New(), JoinRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "Cannot join a trip that has already started or ended" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestJoinRejectsDraftTrip(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, func(trip *models.RoadTrip) { trip.Status = enums.TripStatusDraft })

	_, err := fx.svc.Join(context.Background(), trip.ID, uuid.New(), JoinRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", pkgerrors.As(err).Code())
	}
}

func TestJoinRejectsIneligibleCar(t *testing.T) {
	fx := newServiceFixture(t)
	fx.eligibility.eligible = false
	trip := fx.seedTrip(t, nil)

	_, err := fx.svc.Join(context.Background(), trip.ID, uuid.New(), JoinRequest{})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", typed.Code())
	}
	if typed.Message() != "Your car does not meet the eligibility criteria for this trip" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestJoinUnknownTrip(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.svc.Join(context.Background(), uuid.New(), uuid.New(), JoinRequest{})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", pkgerrors.As(err).Code())
	}
}

func TestLeaveRemovesMembership(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	user := uuid.New()
	fx.seedParticipant(t, trip.ID, user, enums.ParticipantStatusConfirmed)

	if err := fx.svc.Leave(context.Background(), trip.ID, user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.repo.byID) != 0 {
		t.Fatal("expected participant row removed")
	}
	if len(fx.fanout.left) != 1 || fx.fanout.left[0] != user {
		t.Fatalf("expected leave fanout for %s, got %v", user, fx.fanout.left)
	}
}

func TestLeaveWithoutMembership(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)

	err := fx.svc.Leave(context.Background(), trip.ID, uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Message() != "You are not participating in this trip" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestLeaveBlockedInsideCutoff(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, func(trip *models.RoadTrip) {
		trip.DepartureTime = time.Now().UTC().Add(6 * time.Hour)
	})
	user := uuid.New()
	fx.seedParticipant(t, trip.ID, user, enums.ParticipantStatusConfirmed)

	err := fx.svc.Leave(context.Background(), trip.ID, user)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "Cannot leave a trip less than 24 hours before departure" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestUpdateStatusRequiresOrganizer(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	p := fx.seedParticipant(t, trip.ID, uuid.New(), enums.ParticipantStatusPending)

	_, err := fx.svc.UpdateStatus(context.Background(), uuid.New(), trip.ID, p.ID, enums.ParticipantStatusConfirmed)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if pkgerrors.As(err).Message() != "Only the trip organizer can update participant status" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestUpdateStatusScopedToTrip(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	other := fx.seedTrip(t, func(t *models.RoadTrip) { t.OrganizerID = trip.OrganizerID })
	p := fx.seedParticipant(t, other.ID, uuid.New(), enums.ParticipantStatusPending)

	_, err := fx.svc.UpdateStatus(context.Background(), trip.OrganizerID, trip.ID, p.ID, enums.ParticipantStatusConfirmed)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Message() != "participant not found" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestUpdateStatusNotifiesOnDecision(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	p := fx.seedParticipant(t, trip.ID, uuid.New(), enums.ParticipantStatusPending)

	view, err := fx.svc.UpdateStatus(context.Background(), trip.OrganizerID, trip.ID, p.ID, enums.ParticipantStatusDeclined)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != enums.ParticipantStatusDeclined {
		t.Fatalf("expected declined, got %s", view.Status)
	}
	if len(fx.fanout.statuses) != 1 || fx.fanout.statuses[0] != enums.ParticipantStatusDeclined {
		t.Fatalf("expected decline fanout, got %v", fx.fanout.statuses)
	}
}

func TestUpdateStatusAcceptsCancelled(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	p := fx.seedParticipant(t, trip.ID, uuid.New(), enums.ParticipantStatusConfirmed)

	view, err := fx.svc.UpdateStatus(context.Background(), trip.OrganizerID, trip.ID, p.ID, enums.ParticipantStatusCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != enums.ParticipantStatusCancelled {
		t.Fatalf("expected cancelled, got %s", view.Status)
	}
}

func TestUpdateStatusNoopWhenUnchanged(t *testing.T) {
	fx := newServiceFixture(t)
	trip := fx.seedTrip(t, nil)
	p := fx.seedParticipant(t, trip.ID, uuid.New(), enums.ParticipantStatusConfirmed)

	if _, err := fx.svc.UpdateStatus(context.Background(), trip.OrganizerID, trip.ID, p.ID, enums.ParticipantStatusConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.fanout.statuses) != 0 {
		t.Fatal("unchanged status must not notify the participant")
	}
	if len(fx.repo.statuses) != 0 {
		t.Fatal("unchanged status must not hit the database")
	}
}

func TestListParticipantsUnknownTrip(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.svc.ListParticipants(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", pkgerrors.As(err).Code())
	}
}
