// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clinichub/platform/internal/config"
	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/session"
)

// UserProvider supplies credential material for login flows. The user
// package implements it.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*session.User, string, error)
	GetByID(ctx context.Context, id string) (*session.User, string, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type Service struct {
	users      UserProvider
	sessions   *session.Manager
	limiter    *AttemptLimiter
	superAdmin config.SuperAdminConfig
	logger     *slog.Logger
}

func NewService(
	users UserProvider,
	sessions *session.Manager,
	limiter *AttemptLimiter,
	superAdmin config.SuperAdminConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		limiter:    limiter,
		superAdmin: superAdmin,
		logger:     logger,
	}
}

// Login authenticates a staff member and mints a session token. Failed
// attempts count against the lockout budget keyed by email, so an
// attacker cannot tell a locked account from a wrong password.
func (s *Service) Login(
	ctx context.Context,
	email, password string,
) (*session.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if status := s.limiter.Check(ctx, email); !status.Allowed {
		return nil, "", core.RateLimitedError(
			int(status.RetryAfter.Seconds()))
	}

	user, hash, err := s.users.GetByEmail(ctx, email)
	var storedHash *string
	if err == nil {
		storedHash = &hash
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, storedHash)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	if !valid || user == nil || user.Status != session.StatusActive {
		status := s.limiter.Fail(ctx, email)
		if !status.Allowed {
			return nil, "", core.RateLimitedError(
				int(status.RetryAfter.Seconds()))
		}
		return nil, "", core.UnauthorizedError("invalid credentials")
	}

	s.limiter.Reset(ctx, email)

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.Warn("password rehash failed",
				"user_id", user.ID, "error", err)
		}
	}

	token, err := s.sessions.CreateSession(user.ID, user.TenantID, user.RoleName)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	return user, token, nil
}

// SuperAdminLogin authenticates against the operator credentials from
// configuration and mints a platform-wide session.
func (s *Service) SuperAdminLogin(
	ctx context.Context,
	email, password string,
) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if status := s.limiter.Check(ctx, email); !status.Allowed {
		return "", core.RateLimitedError(int(status.RetryAfter.Seconds()))
	}

	if s.superAdmin.Email == "" || s.superAdmin.PasswordHash == "" {
		return "", core.UnauthorizedError("invalid credentials")
	}

	hash := s.superAdmin.PasswordHash
	valid, _, err := core.VerifyPasswordTimingSafe(password, &hash)
	if err != nil {
		return "", fmt.Errorf("super admin login: %w", err)
	}

	emailMatch := subtle.ConstantTimeCompare(
		[]byte(email),
		[]byte(strings.ToLower(s.superAdmin.Email)),
	) == 1

	if !valid || !emailMatch {
		status := s.limiter.Fail(ctx, email)
		if !status.Allowed {
			return "", core.RateLimitedError(
				int(status.RetryAfter.Seconds()))
		}
		return "", core.UnauthorizedError("invalid credentials")
	}

	s.limiter.Reset(ctx, email)

	token, err := s.sessions.CreateSuperAdminSession(email)
	if err != nil {
		return "", fmt.Errorf("super admin login: %w", err)
	}

	return token, nil
}

// ChangePassword verifies the current password before storing the new
// hash and rotating the session.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) (string, error) {
	user, hash, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.UnauthorizedError("invalid credentials")
		}
		return "", fmt.Errorf("change password: %w", err)
	}

	valid, _, err := core.VerifyPasswordTimingSafe(currentPassword, &hash)
	if err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}
	if !valid {
		return "", core.UnauthorizedError("invalid credentials")
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}

	token, err := s.sessions.CreateSession(user.ID, user.TenantID, user.RoleName)
	if err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}

	return token, nil
}
