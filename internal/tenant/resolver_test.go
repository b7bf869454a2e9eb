// AngelaMos | 2026
// resolver_test.go

package tenant

import "testing"

func newTestResolver() *Resolver {
	return NewResolver("demo", []string{"en", "fr", "ar"})
}

func TestResolveRedirectsToTenantPrefix(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		name     string
		host     string
		path     string
		wantLoc  string
		wantSlug string
	}{
		{
			name:     "subdomain host",
			host:     "acme.clinichub.io",
			path:     "/dashboard",
			wantLoc:  "/acme/dashboard",
			wantSlug: "acme",
		},
		{
			name:     "host with port",
			host:     "acme.clinichub.io:8443",
			path:     "/patients",
			wantLoc:  "/acme/patients",
			wantSlug: "acme",
		},
		{
			name:     "uppercase label is lowered",
			host:     "ACME.clinichub.io",
			path:     "/",
			wantLoc:  "/acme/",
			wantSlug: "acme",
		},
		{
			name:     "www falls back to default",
			host:     "www.clinichub.io",
			path:     "/dashboard",
			wantLoc:  "/demo/dashboard",
			wantSlug: "demo",
		},
		{
			name:     "localhost falls back to default",
			host:     "localhost:3000",
			path:     "/dashboard",
			wantLoc:  "/demo/dashboard",
			wantSlug: "demo",
		},
		{
			name:     "loopback literal falls back to default",
			host:     "127.0.0.1:3000",
			path:     "/dashboard",
			wantLoc:  "/demo/dashboard",
			wantSlug: "demo",
		},
		{
			name:     "empty host falls back to default",
			host:     "",
			path:     "/dashboard",
			wantLoc:  "/demo/dashboard",
			wantSlug: "demo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(tt.host, tt.path)
			if !res.Redirect {
				t.Fatalf("Resolve(%q, %q): expected redirect", tt.host, tt.path)
			}
			if res.Location != tt.wantLoc {
				t.Errorf("Location = %q, want %q", res.Location, tt.wantLoc)
			}
			if res.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", res.Slug, tt.wantSlug)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := newTestResolver()

	// A path that already carries /{tenant}/{locale} must pass through
	// untouched: re-resolving a redirect target must not redirect again.
	first := r.Resolve("acme.clinichub.io", "/en/dashboard")
	if !first.Redirect {
		t.Fatal("expected initial redirect")
	}

	second := r.Resolve("acme.clinichub.io", first.Location)
	if second.Redirect {
		t.Fatalf("redirect loop: %q resolved to another redirect %q",
			first.Location, second.Location)
	}
	if second.Slug != "acme" {
		t.Errorf("Slug = %q, want %q", second.Slug, "acme")
	}
}

func TestResolvePassesThroughResolvedPaths(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		path     string
		wantSlug string
	}{
		{"/acme/en/dashboard", "acme"},
		{"/acme/fr/patients/42", "acme"},
		{"/acme/forbidden", "acme"},
		{"/acme/error", "acme"},
		{"/acme/not-found", "acme"},
		{"/beta/forbidden/details", "beta"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := r.Resolve("other.clinichub.io", tt.path)
			if res.Redirect {
				t.Fatalf("Resolve(%q): unexpected redirect to %q",
					tt.path, res.Location)
			}
			if res.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", res.Slug, tt.wantSlug)
			}
		})
	}
}

func TestResolveEscapeRoutes(t *testing.T) {
	r := newTestResolver()

	paths := []string{
		"/login",
		"/forbidden",
		"/api",
		"/api/auth/login",
		"/api/users",
		"/api/error",
		"/deep/nested/error",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			res := r.Resolve("acme.clinichub.io", path)
			if res.Redirect {
				t.Errorf("Resolve(%q): escape route must not redirect", path)
			}
			if res.Slug != "" {
				t.Errorf("Resolve(%q): Slug = %q, want empty", path, res.Slug)
			}
		})
	}
}

func TestSlugFromHost(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		host string
		want string
	}{
		{"acme.clinichub.io", "acme"},
		{"acme.clinichub.io:443", "acme"},
		{"Beta.clinichub.io", "beta"},
		{"www.clinichub.io", "demo"},
		{"localhost", "demo"},
		{"localhost:8080", "demo"},
		{"127.0.0.1", "demo"},
		{"[::1]:8080", "demo"},
		{"", "demo"},
		{"clinichub", "clinichub"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := r.SlugFromHost(tt.host); got != tt.want {
				t.Errorf("SlugFromHost(%q) = %q, want %q", tt.host, got, tt.want)
			}
		})
	}
}
