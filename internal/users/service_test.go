package users

import (
	"context"
	"testing"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/convoyapp/convoy-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeRepository struct {
	users     map[uuid.UUID]*models.User
	passwords map[uuid.UUID]string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:     make(map[uuid.UUID]*models.User),
		passwords: make(map[uuid.UUID]string),
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	for _, user := range f.users {
		if user.Phone != nil && *user.Phone == phone {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Update(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	f.passwords[id] = hash
	return nil
}

func (f *fakeRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeRepository) ListActiveIDs(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeRepository) seedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        "driver@example.com",
		PasswordHash: hash,
		FirstName:    "Dana",
		LastName:     "Reed",
		IsActive:     true,
	}
	f.users[user.ID] = user
	return user
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func TestProfileUnknownUser(t *testing.T) {
	svc := newTestService(t, newFakeRepository())

	_, err := svc.Profile(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", pkgerrors.As(err).Code())
	}
}

func TestProfileExposesTierAndSubscription(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")
	start := time.Now().UTC().Add(-30 * 24 * time.Hour)
	end := start.Add(365 * 24 * time.Hour)
	user.Tier = enums.UserTierPremium
	user.SubscriptionStart = &start
	user.SubscriptionEnd = &end
	svc := newTestService(t, repo)

	view, err := svc.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Tier != enums.UserTierPremium {
		t.Fatalf("expected premium tier, got %s", view.Tier)
	}
	if view.SubscriptionStart == nil || !view.SubscriptionStart.Equal(start) {
		t.Fatalf("expected subscription start %s, got %v", start, view.SubscriptionStart)
	}
	if view.SubscriptionEnd == nil || !view.SubscriptionEnd.Equal(end) {
		t.Fatalf("expected subscription end %s, got %v", end, view.SubscriptionEnd)
	}
}

func TestUpdateProfileTrimsNames(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")
	svc := newTestService(t, repo)

	first := "  Avery "
	view, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{FirstName: &first})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.FirstName != "Avery" {
		t.Fatalf("expected trimmed name, got %q", view.FirstName)
	}
}

func TestUpdateProfileRejectsTakenPhone(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")

	phone := "+15550100"
	other := &models.User{ID: uuid.New(), Email: "other@example.com", Phone: &phone, IsActive: true}
	repo.users[other.ID] = other

	svc := newTestService(t, repo)
	_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Phone: &phone})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", typed.Code())
	}
	if typed.Message() != "phone number already in use" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestUpdateProfileKeepsOwnPhone(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")
	phone := "+15550100"
	user.Phone = &phone

	svc := newTestService(t, repo)
	if _, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Phone: &phone}); err != nil {
		t.Fatalf("re-submitting your own phone should succeed, got %v", err)
	}
}

func TestUpdateProfileClearsPhone(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")
	phone := "+15550100"
	user.Phone = &phone

	svc := newTestService(t, repo)
	empty := ""
	view, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{Phone: &empty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Phone != nil {
		t.Fatalf("expected phone cleared, got %q", *view.Phone)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")
	svc := newTestService(t, repo)

	err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "wrong-pass",
		NewPassword:     "replacement-pass",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", typed.Code())
	}
	if typed.Message() != "current password is incorrect" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")
	svc := newTestService(t, repo)

	err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "origin-pass",
		NewPassword:     "replacement-pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hash, ok := repo.passwords[user.ID]
	if !ok {
		t.Fatal("expected password hash written")
	}
	valid, err := security.VerifyPassword("replacement-pass", hash)
	if err != nil || !valid {
		t.Fatalf("new password must verify against stored hash (valid=%v err=%v)", valid, err)
	}
}

func TestCheckEmailAvailability(t *testing.T) {
	repo := newFakeRepository()
	repo.seedUser(t, "origin-pass")
	svc := newTestService(t, repo)

	taken, err := svc.CheckEmail(context.Background(), " Driver@Example.com ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken.Available {
		t.Fatal("seeded email must not be available")
	}

	free, err := svc.CheckEmail(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !free.Available {
		t.Fatal("unused email must be available")
	}
}

func TestCheckEmailRequiresInput(t *testing.T) {
	svc := newTestService(t, newFakeRepository())

	_, err := svc.CheckEmail(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "email is required" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestCheckPhoneAvailability(t *testing.T) {
	repo := newFakeRepository()
	user := repo.seedUser(t, "origin-pass")
	phone := "+15550100"
	user.Phone = &phone
	svc := newTestService(t, repo)

	taken, err := svc.CheckPhone(context.Background(), phone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken.Available {
		t.Fatal("seeded phone must not be available")
	}
}
