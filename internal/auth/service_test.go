package auth

import (
	"context"
	"testing"
	"time"

	pkgAuth "github.com/convoyapp/convoy-backend/pkg/auth"
	"github.com/convoyapp/convoy-backend/pkg/auth/session"
	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db/models"
	pkgerrors "github.com/convoyapp/convoy-backend/pkg/errors"
	"github.com/convoyapp/convoy-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	user       *models.User
	lastLogins []time.Time
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogins = append(f.lastLogins, at)
	return nil
}

type fakeSessionManager struct {
	revoked  []string
	rotateFn func(oldAccessID, provided string) (string, string, error)
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return "refresh-" + accessID, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateFn != nil {
		return f.rotateFn(oldAccessID, provided)
	}
	return "new-access-id", "new-refresh-token", nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "convoy-test",
		ExpirationMinutes: 15,
	}
}

func seedUser(t *testing.T, password string, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "driver@example.com",
		PasswordHash: hash,
		FirstName:    "Dana",
		LastName:     "Reed",
		IsActive:     active,
	}
}

func newTestService(t *testing.T, repo *fakeUserRepo, sessions *fakeSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func TestLoginIssuesTokens(t *testing.T) {
	repo := &fakeUserRepo{user: seedUser(t, "road-trip-pass", true)}
	svc := newTestService(t, repo, &fakeSessionManager{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Driver@Example.com",
		Password: "road-trip-pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}
	if resp.User == nil || resp.User.ID != repo.user.ID {
		t.Fatal("expected user profile in response")
	}
	if len(repo.lastLogins) != 1 {
		t.Fatalf("expected last login recorded once, got %d", len(repo.lastLogins))
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("minted token must parse: %v", err)
	}
	if claims.UserID != repo.user.ID {
		t.Fatalf("expected subject %s, got %s", repo.user.ID, claims.UserID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{user: seedUser(t, "road-trip-pass", true)}
	svc := newTestService(t, repo, &fakeSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "driver@example.com",
		Password: "not-the-password",
	})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", typed.Code())
	}
	if typed.Message() != "invalid credentials" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, &fakeSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-pass",
	})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if pkgerrors.As(err).Message() != "invalid credentials" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
}

func TestLoginInactiveUser(t *testing.T) {
	repo := &fakeUserRepo{user: seedUser(t, "road-trip-pass", false)}
	svc := newTestService(t, repo, &fakeSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "driver@example.com",
		Password: "road-trip-pass",
	})
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", pkgerrors.As(err).Code())
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &fakeSessionManager{}
	svc := newTestService(t, &fakeUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "session-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "session-123" {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}
}

func TestLogoutRequiresSessionID(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, &fakeSessionManager{})

	err := svc.Logout(context.Background(), "  ")
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", pkgerrors.As(err).Code())
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, &fakeSessionManager{})
	claims := &pkgAuth.AccessTokenClaims{UserID: uuid.New(), Email: "driver@example.com"}

	resp, err := svc.Refresh(context.Background(), "old-access-id", "old-refresh", claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RefreshToken != "new-refresh-token" {
		t.Fatalf("expected rotated refresh token, got %q", resp.RefreshToken)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected new access token")
	}
}

func TestRefreshRejectsInvalidToken(t *testing.T) {
	sessions := &fakeSessionManager{
		rotateFn: func(oldAccessID, provided string) (string, string, error) {
			return "", "", session.ErrInvalidRefreshToken
		},
	}
	svc := newTestService(t, &fakeUserRepo{}, sessions)
	claims := &pkgAuth.AccessTokenClaims{UserID: uuid.New(), Email: "driver@example.com"}

	_, err := svc.Refresh(context.Background(), "old-access-id", "stolen-token", claims)
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", typed.Code())
	}
	if typed.Message() != "invalid refresh token" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestRefreshRequiresClaims(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, &fakeSessionManager{})

	_, err := svc.Refresh(context.Background(), "old-access-id", "refresh", nil)
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", pkgerrors.As(err).Code())
	}
}
