// AngelaMos | 2026
// middleware.go

package tenant

import (
	"context"
	"net/http"
)

type contextKey string

const slugKey contextKey = "tenant_slug"

// Middleware applies the resolver to every request. Redirects carry the
// browser to the tenant-prefixed URL; pass-through requests get the
// resolved slug stashed in context and mirrored into a non-sensitive
// cookie that client code may read to skip a tenant-info lookup.
func Middleware(
	resolver *Resolver,
	slugCookieName string,
	secure bool,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.Header.Get("X-Forwarded-Host")
			if host == "" {
				host = r.Host
			}

			res := resolver.Resolve(host, r.URL.Path)

			if res.Slug != "" {
				setSlugCookie(w, slugCookieName, res.Slug, secure)
			}

			if res.Redirect {
				http.Redirect(w, r, res.Location, http.StatusFound)
				return
			}

			if res.Slug != "" {
				r = r.WithContext(ContextWithSlug(r.Context(), res.Slug))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func SlugFromContext(ctx context.Context) string {
	if slug, ok := ctx.Value(slugKey).(string); ok {
		return slug
	}
	return ""
}

func ContextWithSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, slugKey, slug)
}

func setSlugCookie(
	w http.ResponseWriter,
	name, slug string,
	secure bool,
) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    slug,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
