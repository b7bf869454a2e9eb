// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/clinichub/platform/internal/config"
	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/session"
)

type fakeUsers struct {
	byEmail map[string]*session.User
	hashes  map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail: make(map[string]*session.User),
		hashes:  make(map[string]string),
	}
}

func (f *fakeUsers) add(t *testing.T, email, password, status string) *session.User {
	t.Helper()

	hash, err := core.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	tenantID := "tenant-1"
	user := &session.User{
		ID:       "id-" + email,
		Email:    email,
		RoleName: "doctor",
		TenantID: &tenantID,
		Status:   status,
	}
	f.byEmail[email] = user
	f.hashes[user.ID] = hash
	return user
}

func (f *fakeUsers) GetByEmail(
	_ context.Context,
	email string,
) (*session.User, string, error) {
	user, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, "", fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return user, f.hashes[user.ID], nil
}

func (f *fakeUsers) GetByID(
	_ context.Context,
	id string,
) (*session.User, string, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, f.hashes[id], nil
		}
	}
	return nil, "", fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUsers) UpdatePassword(
	_ context.Context,
	id, passwordHash string,
) error {
	f.hashes[id] = passwordHash
	return nil
}

func newAuthService(
	t *testing.T,
	users *fakeUsers,
	superAdmin config.SuperAdminConfig,
) *Service {
	t.Helper()

	cfg := config.SessionConfig{
		Secret:        "0123456789abcdef0123456789abcdef",
		Issuer:        "clinichub",
		Audience:      "clinichub-app",
		TTL:           time.Hour,
		SuperAdminTTL: time.Hour,
		CookieName:    "ch_session",
	}

	sessions, err := session.NewManager(cfg, false, nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	limiter := NewAttemptLimiter(nil, 5, 15*time.Minute, slog.Default())

	return NewService(users, sessions, limiter, superAdmin, slog.Default())
}

func TestLoginSuccess(t *testing.T) {
	users := newFakeUsers()
	users.add(t, "doc@acme.clinic", "hunter2hunter2", session.StatusActive)

	svc := newAuthService(t, users, config.SuperAdminConfig{})

	user, token, err := svc.Login(
		context.Background(), "Doc@Acme.Clinic", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "doc@acme.clinic" {
		t.Errorf("Email = %q", user.Email)
	}
	if token == "" {
		t.Error("expected a session token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUsers()
	users.add(t, "doc@acme.clinic", "hunter2hunter2", session.StatusActive)

	svc := newAuthService(t, users, config.SuperAdminConfig{})

	_, _, err := svc.Login(context.Background(), "doc@acme.clinic", "wrong")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(t, newFakeUsers(), config.SuperAdminConfig{})

	// Unknown account and wrong password must be indistinguishable.
	_, _, err := svc.Login(
		context.Background(), "ghost@acme.clinic", "whatever")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	users := newFakeUsers()
	users.add(t, "doc@acme.clinic", "hunter2hunter2", "disabled")

	svc := newAuthService(t, users, config.SuperAdminConfig{})

	_, _, err := svc.Login(
		context.Background(), "doc@acme.clinic", "hunter2hunter2")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLoginLockout(t *testing.T) {
	users := newFakeUsers()
	users.add(t, "doc@acme.clinic", "hunter2hunter2", session.StatusActive)

	svc := newAuthService(t, users, config.SuperAdminConfig{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := svc.Login(ctx, "doc@acme.clinic", "wrong")
		if err == nil {
			t.Fatalf("attempt %d should fail", i+1)
		}
	}

	// Even the correct password is rejected while locked.
	_, _, err := svc.Login(ctx, "doc@acme.clinic", "hunter2hunter2")
	if !errors.Is(err, core.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestLoginResetsCounterOnSuccess(t *testing.T) {
	users := newFakeUsers()
	users.add(t, "doc@acme.clinic", "hunter2hunter2", session.StatusActive)

	svc := newAuthService(t, users, config.SuperAdminConfig{})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		//nolint:errcheck // failures are the point
		_, _, _ = svc.Login(ctx, "doc@acme.clinic", "wrong")
	}

	if _, _, err := svc.Login(ctx, "doc@acme.clinic", "hunter2hunter2"); err != nil {
		t.Fatalf("Login before lockout: %v", err)
	}

	// The successful login reset the budget; one more failure must not
	// lock.
	_, _, err := svc.Login(ctx, "doc@acme.clinic", "wrong")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized after reset", err)
	}
}

func TestSuperAdminLogin(t *testing.T) {
	hash, err := core.HashPassword("operator-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	superAdmin := config.SuperAdminConfig{
		Email:        "ops@clinichub.io",
		PasswordHash: hash,
	}
	svc := newAuthService(t, newFakeUsers(), superAdmin)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		token, err := svc.SuperAdminLogin(
			ctx, "ops@clinichub.io", "operator-password")
		if err != nil {
			t.Fatalf("SuperAdminLogin: %v", err)
		}
		if token == "" {
			t.Error("expected a session token")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.SuperAdminLogin(ctx, "ops@clinichub.io", "wrong")
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("wrong email", func(t *testing.T) {
		_, err := svc.SuperAdminLogin(
			ctx, "someone@clinichub.io", "operator-password")
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}

func TestSuperAdminLoginUnconfigured(t *testing.T) {
	svc := newAuthService(t, newFakeUsers(), config.SuperAdminConfig{})

	_, err := svc.SuperAdminLogin(
		context.Background(), "ops@clinichub.io", "anything")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestChangePassword(t *testing.T) {
	users := newFakeUsers()
	user := users.add(t, "doc@acme.clinic", "old-password-123", session.StatusActive)

	svc := newAuthService(t, users, config.SuperAdminConfig{})
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		_, err := svc.ChangePassword(ctx, user.ID, "wrong", "new-password-987")
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("success rotates credentials", func(t *testing.T) {
		token, err := svc.ChangePassword(
			ctx, user.ID, "old-password-123", "new-password-987")
		if err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
		if token == "" {
			t.Error("expected a fresh session token")
		}

		if _, _, err := svc.Login(ctx, "doc@acme.clinic", "new-password-987"); err != nil {
			t.Errorf("login with new password: %v", err)
		}
	})
}
