// AngelaMos | 2026
// manager.go

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/clinichub/platform/internal/config"
	"github.com/clinichub/platform/internal/core"
)

const (
	kindSession    = "session"
	kindSuperAdmin = "superadmin"
)

// Session is the verified content of a session token. Exactly two
// variants exist: an ordinary tenant-bound user session and a
// super-admin session with no tenant scope. Both live in the same
// cookie and are told apart by the token's type claim, so the two
// families can never be confused by cookie-name mixups.
type Session interface {
	sessionKind() string
}

type UserSession struct {
	UserID    string
	TenantID  string
	Role      string
	ExpiresAt time.Time
}

func (UserSession) sessionKind() string { return kindSession }

type SuperAdminSession struct {
	Email     string
	ExpiresAt time.Time
}

func (SuperAdminSession) sessionKind() string { return kindSuperAdmin }

// User is the hydrated identity behind a verified user session.
type User struct {
	ID       string
	Email    string
	Name     string
	RoleID   string
	RoleName string
	TenantID *string
	Status   string
}

const StatusActive = "active"

type UserProvider interface {
	GetSessionUser(ctx context.Context, id string) (*User, error)
}

type TenantChecker interface {
	IsActive(ctx context.Context, tenantID string) (bool, error)
}

type Manager struct {
	key     jwk.Key
	cfg     config.SessionConfig
	secure  bool
	users   UserProvider
	tenants TenantChecker
}

func NewManager(
	cfg config.SessionConfig,
	production bool,
	users UserProvider,
	tenants TenantChecker,
) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	return &Manager{
		key:     key,
		cfg:     cfg,
		secure:  production,
		users:   users,
		tenants: tenants,
	}, nil
}

func (m *Manager) CreateSession(
	userID string,
	tenantID *string,
	role string,
) (string, error) {
	now := time.Now()

	builder := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.cfg.Issuer).
		Audience([]string{m.cfg.Audience}).
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(m.cfg.TTL)).
		NotBefore(now).
		Claim("role", role).
		Claim("type", kindSession)

	if tenantID != nil {
		builder = builder.Claim("tenant_id", *tenantID)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build session token: %w", err)
	}

	return m.sign(token)
}

func (m *Manager) CreateSuperAdminSession(email string) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.cfg.Issuer).
		Audience([]string{m.cfg.Audience}).
		IssuedAt(now).
		Expiration(now.Add(m.cfg.SuperAdminTTL)).
		NotBefore(now).
		Claim("email", email).
		Claim("type", kindSuperAdmin).
		Build()
	if err != nil {
		return "", fmt.Errorf("build super-admin token: %w", err)
	}

	return m.sign(token)
}

func (m *Manager) sign(token jwt.Token) (string, error) {
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// Verify decodes either session variant, dispatching on the type claim.
// It fails closed: any verification problem collapses to token-invalid
// or token-expired, never a partially trusted identity.
func (m *Manager) Verify(tokenString string) (Session, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, fmt.Errorf("verify session: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify session: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil {
		return nil, fmt.Errorf(
			"verify session: missing type claim: %w",
			core.ErrTokenInvalid,
		)
	}

	expiresAt, _ := token.Expiration()

	switch tokenType {
	case kindSession:
		return m.decodeUserSession(token, expiresAt)
	case kindSuperAdmin:
		return m.decodeSuperAdminSession(token, expiresAt)
	default:
		return nil, fmt.Errorf(
			"verify session: unknown token type: %w",
			core.ErrTokenInvalid,
		)
	}
}

func (m *Manager) decodeUserSession(
	token jwt.Token,
	expiresAt time.Time,
) (Session, error) {
	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify session: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var role string
	if err := token.Get("role", &role); err != nil {
		return nil, fmt.Errorf(
			"verify session: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var tenantID string
	//nolint:errcheck // tenant claim is optional
	_ = token.Get("tenant_id", &tenantID)

	return UserSession{
		UserID:    subject,
		TenantID:  tenantID,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

func (m *Manager) decodeSuperAdminSession(
	token jwt.Token,
	expiresAt time.Time,
) (Session, error) {
	var email string
	if err := token.Get("email", &email); err != nil || email == "" {
		return nil, fmt.Errorf(
			"verify session: missing email claim: %w",
			core.ErrTokenInvalid,
		)
	}

	return SuperAdminSession{
		Email:     email,
		ExpiresAt: expiresAt,
	}, nil
}

// GetUser hydrates the full user record behind a verified session. A
// token that outlived its user, a disabled user, or a tenant that is no
// longer active all collapse to unauthenticated.
func (m *Manager) GetUser(
	ctx context.Context,
	s UserSession,
) (*User, error) {
	user, err := m.users.GetSessionUser(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("get session user: %w", core.ErrUserMissing)
		}
		return nil, fmt.Errorf("get session user: %w", err)
	}

	if user.Status != StatusActive {
		return nil, fmt.Errorf("get session user: %w", core.ErrUserMissing)
	}

	if user.TenantID != nil {
		active, err := m.tenants.IsActive(ctx, *user.TenantID)
		if err != nil {
			return nil, fmt.Errorf("check tenant: %w", err)
		}
		if !active {
			return nil, fmt.Errorf(
				"get session user: %w",
				core.ErrTenantSuspended,
			)
		}
	}

	return user, nil
}

func (m *Manager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (m *Manager) SessionCookie(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.cfg.TTL
}

func (m *Manager) SuperAdminTTL() time.Duration {
	return m.cfg.SuperAdminTTL
}
