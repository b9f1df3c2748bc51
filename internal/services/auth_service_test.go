package services

import (
	"testing"

	"github.com/contribhub/backend/internal/config"
	"github.com/contribhub/backend/internal/utils"
)

func testAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("test-secret")
	db := newTestDB(t)
	return NewAuthService(db, &config.JWTConfig{Secret: "test-secret", ExpireHour: 24})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := testAuthService(t)

	user, err := svc.Register(&RegisterRequest{Username: "alice", Password: "secret1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != "user" || !user.IsActive {
		t.Errorf("unexpected defaults: role=%q active=%v", user.Role, user.IsActive)
	}
	if user.Password == "secret1" {
		t.Error("password should be stored hashed")
	}

	// Duplicate username
	if _, err := svc.Register(&RegisterRequest{Username: "alice", Password: "other12"}); !IsConflict(err) {
		t.Errorf("expected ConflictError for duplicate username, got %v", err)
	}

	result, err := svc.Login(&LoginRequest{Username: "alice", Password: "secret1"}, "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("login should issue both tokens")
	}

	claims, err := utils.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Login(&LoginRequest{Username: "alice", Password: "wrong"}, "", ""); err == nil {
		t.Error("wrong password should fail")
	}
	if _, err := svc.Login(&LoginRequest{Username: "nobody", Password: "x"}, "", ""); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestRefreshRotation(t *testing.T) {
	svc := testAuthService(t)

	svc.Register(&RegisterRequest{Username: "bob", Password: "secret1"})
	login, err := svc.Login(&LoginRequest{Username: "bob", Password: "secret1"}, "", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := svc.Refresh(login.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh should rotate the token")
	}

	// The rotated-out token is revoked
	if _, err := svc.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Error("reusing a rotated refresh token should fail")
	}

	// The replacement still works
	if _, err := svc.Refresh(refreshed.RefreshToken, "", ""); err != nil {
		t.Errorf("replacement refresh token should work: %v", err)
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	svc := testAuthService(t)

	svc.Register(&RegisterRequest{Username: "carol", Password: "secret1"})
	login, _ := svc.Login(&LoginRequest{Username: "carol", Password: "secret1"}, "", "")

	if err := svc.RevokeRefreshToken(login.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken failed: %v", err)
	}
	if _, err := svc.Refresh(login.RefreshToken, "", ""); err == nil {
		t.Error("revoked token should not refresh")
	}

	// Revoking an unknown or empty token is a no-op
	if err := svc.RevokeRefreshToken("unknown"); err != nil {
		t.Errorf("unknown token revoke should not fail: %v", err)
	}
	if err := svc.RevokeRefreshToken(""); err != nil {
		t.Errorf("empty token revoke should not fail: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := testAuthService(t)

	user, _ := svc.Register(&RegisterRequest{Username: "dave", Password: "secret1"})

	if err := svc.ChangePassword(user.ID, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass1"}); err == nil {
		t.Error("wrong old password should fail")
	}
	if err := svc.ChangePassword(user.ID, &ChangePasswordRequest{OldPassword: "secret1", NewPassword: "newpass1"}); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := svc.Login(&LoginRequest{Username: "dave", Password: "newpass1"}, "", ""); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

func TestCreateAdminIfNotExists(t *testing.T) {
	svc := testAuthService(t)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists failed: %v", err)
	}
	// Idempotent
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if _, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin"}, "", ""); err != nil {
		t.Errorf("default admin login failed: %v", err)
	}
}
