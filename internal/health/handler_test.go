// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) Ping(ctx context.Context) error {
	return f.err
}

func newReadyHandler(db, redis Checker) *Handler {
	h := NewHandler(db, redis)
	h.SetReady(true)
	return h
}

func decodeReadiness(t *testing.T, rec *httptest.ResponseRecorder) ReadinessResponse {
	t.Helper()

	var body ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode readiness body: %v", err)
	}
	return body
}

func TestLiveness(t *testing.T) {
	h := newReadyHandler(&fakeChecker{}, &fakeChecker{})

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLivenessDuringShutdown(t *testing.T) {
	h := newReadyHandler(&fakeChecker{}, &fakeChecker{})
	h.SetShutdown(true)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestReadinessBeforeSetReady(t *testing.T) {
	h := NewHandler(&fakeChecker{}, &fakeChecker{})

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestReadinessAllHealthy(t *testing.T) {
	h := newReadyHandler(&fakeChecker{}, &fakeChecker{})

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeReadiness(t, rec)
	if body.Status != "ok" {
		t.Fatalf("status = %q, want %q", body.Status, "ok")
	}
	if len(body.Checks) != 2 {
		t.Fatalf("checks = %d, want 2", len(body.Checks))
	}
}

func TestReadinessDegradedOnPingFailure(t *testing.T) {
	h := newReadyHandler(
		&fakeChecker{err: errors.New("connection refused")},
		&fakeChecker{},
	)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	body := decodeReadiness(t, rec)
	if body.Status != "degraded" {
		t.Fatalf("status = %q, want %q", body.Status, "degraded")
	}
}

func TestReadinessFailsWhenSetupIncomplete(t *testing.T) {
	h := newReadyHandler(&fakeChecker{}, &fakeChecker{})
	h.SetSetupCheck(func() bool { return false })

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	body := decodeReadiness(t, rec)
	if len(body.Checks) != 3 {
		t.Fatalf("checks = %d, want 3", len(body.Checks))
	}

	var cfg *HealthCheck
	for i := range body.Checks {
		if body.Checks[i].Name == "configuration" {
			cfg = &body.Checks[i]
		}
	}
	if cfg == nil {
		t.Fatal("configuration check missing")
	}
	if cfg.Healthy {
		t.Fatal("configuration check should be unhealthy")
	}
}
