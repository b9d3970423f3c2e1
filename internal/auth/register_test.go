package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/convoyapp/convoy-backend/internal/users"
	pkgAuth "github.com/convoyapp/convoy-backend/pkg/auth"
	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	"github.com/convoyapp/convoy-backend/pkg/enums"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/convoyapp/convoy-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	byPhone map[string]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byEmail: make(map[string]*models.User),
		byPhone: make(map[string]*models.User),
	}
}

func (f *fakeUsersRepo) WithTx(tx *gorm.DB) users.Repository { return f }

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byEmail[user.Email] = user
	if user.Phone != nil {
		f.byPhone[*user.Phone] = user
	}
	return nil
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsersRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	if user, ok := f.byPhone[phone]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsersRepo) Update(ctx context.Context, user *models.User) error { return nil }

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}

func (f *fakeUsersRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeUsersRepo) ListActiveIDs(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
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

func newRegisterFixture(t *testing.T, repo *fakeUsersRepo) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             newTestDBClient(t),
		Repo:           repo,
		SessionManager: &fakeSessionManager{},
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		FirstName:       "Dana",
		LastName:        "Reed",
		Email:           "Dana.Reed@Example.com",
		Password:        "road-trip-pass",
		PasswordConfirm: "road-trip-pass",
		Phone:           "+33612345678",
	}
}

func TestRegisterCreatesUserAndSignsIn(t *testing.T) {
	repo := newFakeUsersRepo()
	svc := newRegisterFixture(t, repo)

	resp, err := svc.Register(context.Background(), validRegisterRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User == nil || resp.User.Email != "dana.reed@example.com" {
		t.Fatalf("expected lowercased email, got %+v", resp.User)
	}
	if resp.User.Tier != enums.UserTierFree {
		t.Fatalf("new accounts start on the free tier, got %s", resp.User.Tier)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("registration must sign the user in")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("minted token must parse: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("expected subject %s, got %s", resp.User.ID, claims.UserID)
	}

	stored := repo.byEmail["dana.reed@example.com"]
	if stored == nil || stored.Phone == nil || *stored.Phone != "+33612345678" {
		t.Fatalf("expected phone persisted, got %+v", stored)
	}
	if valid, err := security.VerifyPassword("road-trip-pass", stored.PasswordHash); err != nil || !valid {
		t.Fatalf("stored hash must verify, valid=%v err=%v", valid, err)
	}
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	svc := newRegisterFixture(t, newFakeUsersRepo())

	req := validRegisterRequest()
	req.PasswordConfirm = "something-else"
	_, err := svc.Register(context.Background(), req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", typed.Code())
	}
	if typed.Message() != "password and confirmation do not match" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestRegisterRequiresPhone(t *testing.T) {
	svc := newRegisterFixture(t, newFakeUsersRepo())

	req := validRegisterRequest()
	req.Phone = "   "
	_, err := svc.Register(context.Background(), req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if pkgerrors.As(err).Message() != "phone is required" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUsersRepo()
	svc := newRegisterFixture(t, repo)

	if _, err := svc.Register(context.Background(), validRegisterRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := validRegisterRequest()
	req.Phone = "+33687654321"
	_, err := svc.Register(context.Background(), req)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if pkgerrors.As(err).Message() != "email already registered" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
	repo := newFakeUsersRepo()
	svc := newRegisterFixture(t, repo)

	if _, err := svc.Register(context.Background(), validRegisterRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := validRegisterRequest()
	req.Email = "other.driver@example.com"
	_, err := svc.Register(context.Background(), req)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if pkgerrors.As(err).Message() != "phone number already registered" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestRegisterAcceptsRequestedTier(t *testing.T) {
	svc := newRegisterFixture(t, newFakeUsersRepo())

	req := validRegisterRequest()
	tier := enums.UserTierPremium
	req.Tier = &tier
	resp, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User.Tier != enums.UserTierPremium {
		t.Fatalf("expected premium tier, got %s", resp.User.Tier)
	}
}
