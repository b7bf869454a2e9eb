// AngelaMos | 2026
// guard.go

package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/rbac"
	"github.com/clinichub/platform/internal/session"
	"github.com/clinichub/platform/internal/tenant"
)

// Guard is the single entry point route handlers use for authentication
// and authorization. API middlewares answer with the JSON error
// envelope; page middlewares redirect. Unauthenticated and forbidden
// are distinct outcomes and are never conflated.
type Guard struct {
	sessions *session.Manager
	engine   *rbac.Engine
}

func New(sessions *session.Manager, engine *rbac.Engine) *Guard {
	return &Guard{
		sessions: sessions,
		engine:   engine,
	}
}

// resolve verifies the session cookie and hydrates the user behind an
// ordinary session. Every failure mode collapses to "no session".
func (g *Guard) resolve(r *http.Request) (context.Context, bool) {
	ctx := r.Context()

	token := g.sessions.TokenFromRequest(r)
	if token == "" {
		return ctx, false
	}

	sess, err := g.sessions.Verify(token)
	if err != nil {
		slog.Debug("session verification failed", "error", err)
		return ctx, false
	}

	switch s := sess.(type) {
	case session.UserSession:
		user, err := g.sessions.GetUser(ctx, s)
		if err != nil {
			slog.Debug("session user hydration failed", "error", err)
			return ctx, false
		}
		ctx = context.WithValue(ctx, sessionKey, sess)
		ctx = context.WithValue(ctx, userKey, user)
		if user.TenantID != nil {
			ctx = context.WithValue(ctx, tenantIDKey, *user.TenantID)
		}
		return ctx, true

	case session.SuperAdminSession:
		ctx = context.WithValue(ctx, sessionKey, sess)
		return ctx, true

	default:
		return ctx, false
	}
}

func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, ok := g.resolve(r)
		if !ok {
			core.Unauthorized(w, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePageSession is the page-context variant: no session means a
// redirect to the login page instead of a JSON error.
func (g *Guard) RequirePageSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, ok := g.resolve(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CheckPermission decides whether the caller may perform action on
// resource. nil means proceed; otherwise the returned descriptor is the
// ready-made 401/403 outcome. An ordinary denial is not an error
// condition and never panics.
func (g *Guard) CheckPermission(
	ctx context.Context,
	resource, action string,
) *core.AppError {
	if IsSuperAdmin(ctx) {
		return nil
	}

	user := GetUser(ctx)
	if user == nil {
		return core.UnauthorizedError("Unauthorized")
	}

	subject := rbac.Subject{
		UserID:   user.ID,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
		TenantID: user.TenantID,
	}

	allowed, err := g.engine.Allow(ctx, subject, resource, action)
	if err != nil {
		slog.Error("permission check failed", "resource", resource, "error", err)
		return core.ForbiddenError("Forbidden")
	}

	if !allowed {
		return core.ForbiddenError("Forbidden")
	}

	return nil
}

func (g *Guard) RequirePermission(
	resource, action string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if appErr := g.CheckPermission(r.Context(), resource, action); appErr != nil {
				core.JSONError(w, appErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePagePermission redirects an authenticated-but-unprivileged
// caller to the tenant dashboard; an unauthenticated one goes to login.
func (g *Guard) RequirePagePermission(
	resource, action string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			appErr := g.CheckPermission(r.Context(), resource, action)
			if appErr == nil {
				next.ServeHTTP(w, r)
				return
			}

			if errors.Is(appErr, core.ErrUnauthorized) {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			http.Redirect(w, r, dashboardPath(r.Context()), http.StatusFound)
		})
	}
}

// RequireAdmin is a direct role check, bypassing the permission engine.
// Role, user, and tenant management stay behind it so permission
// records cannot grant access to permission management itself.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !IsAuthenticated(ctx) {
			core.Unauthorized(w, "Unauthorized")
			return
		}

		if IsSuperAdmin(ctx) || IsAdmin(ctx) {
			next.ServeHTTP(w, r)
			return
		}

		core.Forbidden(w, "admin access required")
	})
}

func (g *Guard) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !IsAuthenticated(ctx) {
			core.Unauthorized(w, "Unauthorized")
			return
		}

		if !IsSuperAdmin(ctx) {
			core.Forbidden(w, "super-admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func dashboardPath(ctx context.Context) string {
	if slug := tenant.SlugFromContext(ctx); slug != "" {
		return "/" + slug + "/dashboard"
	}
	return "/dashboard"
}
