// AngelaMos | 2026
// context.go

package guard

import (
	"context"

	"github.com/clinichub/platform/internal/rbac"
	"github.com/clinichub/platform/internal/session"
)

type contextKey string

const (
	sessionKey  contextKey = "session"
	userKey     contextKey = "session_user"
	tenantIDKey contextKey = "tenant_id"
)

func GetSession(ctx context.Context) session.Session {
	if s, ok := ctx.Value(sessionKey).(session.Session); ok {
		return s
	}
	return nil
}

func GetUser(ctx context.Context) *session.User {
	if u, ok := ctx.Value(userKey).(*session.User); ok {
		return u
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.ID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.RoleName
	}
	return ""
}

func IsAuthenticated(ctx context.Context) bool {
	return GetSession(ctx) != nil
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == rbac.RoleAdmin
}

func IsSuperAdmin(ctx context.Context) bool {
	_, ok := GetSession(ctx).(session.SuperAdminSession)
	return ok
}

// ContextWithTenantID pins an explicit tenant scope for flows that carry
// no user session, like cron jobs or super-admin backoffice requests
// acting on behalf of one clinic.
func ContextWithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

func TenantIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(tenantIDKey).(string); ok {
		return id
	}
	return ""
}
