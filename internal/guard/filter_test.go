// AngelaMos | 2026
// filter_test.go

package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/session"
)

func ctxWithUser(tenantID *string) context.Context {
	user := &session.User{
		ID:       "user-1",
		RoleName: "doctor",
		TenantID: tenantID,
		Status:   session.StatusActive,
	}
	ctx := context.WithValue(context.Background(), sessionKey,
		session.Session(session.UserSession{UserID: user.ID}))
	return context.WithValue(ctx, userKey, user)
}

func ctxWithSuperAdmin() context.Context {
	return context.WithValue(context.Background(), sessionKey,
		session.Session(session.SuperAdminSession{Email: "ops@clinichub.io"}))
}

func TestWithTenantFilterInjectsTenant(t *testing.T) {
	tenantID := "tenant-1"
	ctx := ctxWithUser(&tenantID)

	filter, err := WithTenantFilter(ctx, map[string]any{"status": "active"})
	if err != nil {
		t.Fatalf("WithTenantFilter: %v", err)
	}

	if filter["tenant_id"] != "tenant-1" {
		t.Errorf("tenant_id = %v, want %q", filter["tenant_id"], "tenant-1")
	}
	if filter["status"] != "active" {
		t.Errorf("status = %v, want %q", filter["status"], "active")
	}
}

func TestWithTenantFilterOverwritesCallerValue(t *testing.T) {
	tenantID := "tenant-1"
	ctx := ctxWithUser(&tenantID)

	// A caller-supplied tenant_id must never survive; the resolved
	// tenant always wins.
	filter, err := WithTenantFilter(ctx, map[string]any{
		"tenant_id": "tenant-other",
	})
	if err != nil {
		t.Fatalf("WithTenantFilter: %v", err)
	}

	if filter["tenant_id"] != "tenant-1" {
		t.Errorf("tenant_id = %v, want resolved %q",
			filter["tenant_id"], "tenant-1")
	}
}

func TestWithTenantFilterDoesNotMutateBase(t *testing.T) {
	tenantID := "tenant-1"
	ctx := ctxWithUser(&tenantID)

	base := map[string]any{"status": "active"}
	if _, err := WithTenantFilter(ctx, base); err != nil {
		t.Fatalf("WithTenantFilter: %v", err)
	}

	if _, ok := base["tenant_id"]; ok {
		t.Error("base map must not be mutated")
	}
}

func TestWithTenantFilterPinnedContext(t *testing.T) {
	// Cron-style flows carry no user session but pin a tenant
	// explicitly.
	ctx := ContextWithTenantID(context.Background(), "tenant-9")

	filter, err := WithTenantFilter(ctx, nil)
	if err != nil {
		t.Fatalf("WithTenantFilter: %v", err)
	}

	if filter["tenant_id"] != "tenant-9" {
		t.Errorf("tenant_id = %v, want %q", filter["tenant_id"], "tenant-9")
	}
}

func TestWithTenantFilterSuperAdminPassthrough(t *testing.T) {
	ctx := ctxWithSuperAdmin()

	filter, err := WithTenantFilter(ctx, map[string]any{"status": "active"})
	if err != nil {
		t.Fatalf("WithTenantFilter: %v", err)
	}

	if _, ok := filter["tenant_id"]; ok {
		t.Error("super admin without pinned tenant must not gain a tenant_id")
	}
	if filter["status"] != "active" {
		t.Errorf("status = %v, want %q", filter["status"], "active")
	}
}

func TestWithTenantFilterSuperAdminPinnedTenant(t *testing.T) {
	ctx := ContextWithTenantID(ctxWithSuperAdmin(), "tenant-3")

	filter, err := WithTenantFilter(ctx, nil)
	if err != nil {
		t.Fatalf("WithTenantFilter: %v", err)
	}

	if filter["tenant_id"] != "tenant-3" {
		t.Errorf("tenant_id = %v, want %q", filter["tenant_id"], "tenant-3")
	}
}

func TestWithTenantFilterUnresolvable(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"anonymous context", context.Background()},
		{"user without tenant", ctxWithUser(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WithTenantFilter(tt.ctx, nil)
			if !errors.Is(err, core.ErrTenantUnresolved) {
				t.Errorf("err = %v, want ErrTenantUnresolved", err)
			}
		})
	}
}
