// AngelaMos | 2026
// filter.go

package guard

import (
	"context"
	"fmt"

	"github.com/clinichub/platform/internal/core"
)

// WithTenantFilter returns a copy of base with the caller's resolved
// tenant injected under "tenant_id". It is the only sanctioned way to
// build a tenant-scoped query filter: whenever a tenant is resolvable
// the result carries it, overwriting anything a caller may have put
// there. Super-admin contexts without a pinned tenant get the base
// filter back unchanged and must branch explicitly on that case.
func WithTenantFilter(
	ctx context.Context,
	base map[string]any,
) (map[string]any, error) {
	filter := make(map[string]any, len(base)+1)
	for k, v := range base {
		filter[k] = v
	}

	if user := GetUser(ctx); user != nil {
		if user.TenantID == nil {
			return nil, fmt.Errorf(
				"tenant filter: user session without tenant: %w",
				core.ErrTenantUnresolved,
			)
		}
		filter["tenant_id"] = *user.TenantID
		return filter, nil
	}

	if tenantID := TenantIDFromContext(ctx); tenantID != "" {
		filter["tenant_id"] = tenantID
		return filter, nil
	}

	if IsSuperAdmin(ctx) {
		return filter, nil
	}

	return nil, fmt.Errorf(
		"tenant filter: no tenant resolvable: %w",
		core.ErrTenantUnresolved,
	)
}
