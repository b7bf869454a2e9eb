// AngelaMos | 2026
// resolver.go

package tenant

import (
	"net"
	"strings"
)

// Resolver maps an inbound (host, path) pair to a tenant slug. It is a
// pure string transform: unknown slugs are not rejected here, validation
// against the tenant store happens in the guard layer.
type Resolver struct {
	defaultSlug string
	locales     map[string]struct{}
}

func NewResolver(defaultSlug string, locales []string) *Resolver {
	localeSet := make(map[string]struct{}, len(locales))
	for _, l := range locales {
		localeSet[l] = struct{}{}
	}

	return &Resolver{
		defaultSlug: defaultSlug,
		locales:     localeSet,
	}
}

// Resolution is the outcome of resolving one request. When Redirect is
// set, Location holds the tenant-prefixed path the client must be sent
// to. Slug is empty for escape routes that bypass resolution entirely.
type Resolution struct {
	Redirect bool
	Location string
	Slug     string
}

var escapeSubRoutes = map[string]struct{}{
	"forbidden": {},
	"error":     {},
	"not-found": {},
}

func (r *Resolver) Resolve(host, path string) Resolution {
	segments := splitPath(path)

	// /{tenant}/{locale}/... is already resolved; re-wrapping it would
	// break idempotence. The same goes for /{tenant}/{forbidden|error|
	// not-found}: those keep their slug, so this check must run before
	// the bare substring escapes below would swallow them.
	if len(segments) >= 2 && segments[0] != "api" {
		if _, ok := r.locales[segments[1]]; ok {
			return Resolution{Slug: segments[0]}
		}
		if _, ok := escapeSubRoutes[segments[1]]; ok {
			return Resolution{Slug: segments[0]}
		}
	}

	if isEscapeRoute(path) {
		return Resolution{}
	}

	slug := r.SlugFromHost(host)

	return Resolution{
		Redirect: true,
		Location: "/" + slug + path,
		Slug:     slug,
	}
}

// SlugFromHost derives a candidate slug from the first host label.
// Unroutable hosts (empty, www, localhost, loopback literals) fall back
// to the configured default tenant.
func (r *Resolver) SlugFromHost(host string) string {
	host = stripPort(host)

	if host == "" || host == "localhost" || isLoopbackLiteral(host) {
		return r.defaultSlug
	}

	label, _, _ := strings.Cut(host, ".")
	if label == "" || label == "www" || label == "localhost" {
		return r.defaultSlug
	}

	return strings.ToLower(label)
}

func isEscapeRoute(path string) bool {
	if path == "/login" {
		return true
	}

	if strings.HasPrefix(path, "/api/") || path == "/api" {
		return true
	}

	return strings.Contains(path, "/forbidden") ||
		strings.Contains(path, "/error") ||
		strings.Contains(path, "/not-found")
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

func isLoopbackLiteral(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
