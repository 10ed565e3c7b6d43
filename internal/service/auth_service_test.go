package service

import (
	"errors"
	"testing"
	"time"

	"github.com/SiteNotice/SiteNotice/internal/config"
	"github.com/SiteNotice/SiteNotice/internal/repository"
	"github.com/SiteNotice/SiteNotice/pkg/testutil"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, func()) {
	t.Helper()

	db, cleanup := testutil.SetupTest(t)
	userRepo := repository.NewUserRepository(db)

	authSvc := NewAuthService(userRepo, &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:    "auth-service-test-secret",
			SessionHours: 1,
		},
	})
	return authSvc, cleanup
}

func TestRegisterAndLogin(t *testing.T) {
	authSvc, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	user, token, err := authSvc.Register("admin@example.com", "correct horse battery", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("register returned empty token")
	}
	if !user.IsAdmin {
		t.Error("expected registered user to be admin")
	}

	loggedIn, loginToken, err := authSvc.Login("admin@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login returned user %q, want %q", loggedIn.ID, user.ID)
	}

	claims, err := authSvc.ValidateToken(loginToken)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user %q, want %q", claims.UserID, user.ID)
	}
	if !claims.IsAdmin {
		t.Error("expected admin claim")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	authSvc, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	if _, _, err := authSvc.Register("admin@example.com", "correct horse battery", true); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := authSvc.Login("admin@example.com", "wrong password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	authSvc, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	_, _, err := authSvc.Login("nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateToken_RejectsTampering(t *testing.T) {
	authSvc, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	_, token, err := authSvc.Register("admin@example.com", "correct horse battery", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := authSvc.ValidateToken(tampered); err == nil {
		t.Error("tampered token validated")
	}

	if _, err := authSvc.ValidateToken("not-a-token"); err == nil {
		t.Error("garbage token validated")
	}
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	authSvc, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	otherSvc, otherCleanup := setupAuthServiceTest(t)
	defer otherCleanup()
	otherSvc.config.Auth.JWTSecret = "a-different-secret-entirely"

	_, token, err := otherSvc.Register("admin@example.com", "correct horse battery", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := authSvc.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret validated")
	}
}

func TestGenerateToken_ExpiryMatchesSessionHours(t *testing.T) {
	authSvc, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	user, _, err := authSvc.Register("admin@example.com", "correct horse battery", true)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := authSvc.GenerateToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := authSvc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining > time.Hour || remaining < 55*time.Minute {
		t.Errorf("expected roughly 1h expiry, got %v", remaining)
	}
}
