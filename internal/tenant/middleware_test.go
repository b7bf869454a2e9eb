// AngelaMos | 2026
// middleware_test.go

package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareRedirects(t *testing.T) {
	mw := Middleware(newTestResolver(), "ch_tenant", false)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("redirected request must not reach the handler")
	}))

	r := httptest.NewRequest(http.MethodGet, "http://acme.clinichub.io/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/acme/dashboard" {
		t.Errorf("Location = %q, want /acme/dashboard", loc)
	}

	var slugCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ch_tenant" {
			slugCookie = c
		}
	}
	if slugCookie == nil {
		t.Fatal("expected tenant slug cookie")
	}
	if slugCookie.Value != "acme" {
		t.Errorf("cookie value = %q, want acme", slugCookie.Value)
	}
	if slugCookie.HttpOnly {
		t.Error("slug cookie must be readable by client code")
	}
}

func TestMiddlewarePassThroughSetsContext(t *testing.T) {
	mw := Middleware(newTestResolver(), "ch_tenant", false)

	var gotSlug string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSlug = SlugFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "http://acme.clinichub.io/acme/en/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSlug != "acme" {
		t.Errorf("slug = %q, want acme", gotSlug)
	}
}

func TestMiddlewarePrefersForwardedHost(t *testing.T) {
	mw := Middleware(newTestResolver(), "ch_tenant", false)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// The proxy-facing host is an internal name; the original edge host
	// arrives via X-Forwarded-Host and must drive resolution.
	r := httptest.NewRequest(http.MethodGet, "http://10.0.0.5:8080/dashboard", nil)
	r.Header.Set("X-Forwarded-Host", "beta.clinichub.io")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if loc := rec.Header().Get("Location"); loc != "/beta/dashboard" {
		t.Errorf("Location = %q, want /beta/dashboard", loc)
	}
}

func TestMiddlewareSkipsEscapeRoutes(t *testing.T) {
	mw := Middleware(newTestResolver(), "ch_tenant", false)

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if slug := SlugFromContext(r.Context()); slug != "" {
			t.Errorf("escape route slug = %q, want empty", slug)
		}
	}))

	r := httptest.NewRequest(http.MethodGet, "http://acme.clinichub.io/api/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if !called {
		t.Fatal("escape route must reach the handler")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("escape routes must not set the slug cookie")
	}
}
