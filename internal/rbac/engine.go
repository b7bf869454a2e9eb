// AngelaMos | 2026
// engine.go

package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinichub/platform/internal/core"
)

// Subject is the resolved identity a permission decision runs against.
type Subject struct {
	UserID   string
	RoleID   string
	RoleName string
	TenantID *string
}

type RoleStore interface {
	GetByID(ctx context.Context, id string) (*Role, error)
}

type PermissionStore interface {
	FindForUser(
		ctx context.Context,
		userID, resource string,
		tenantID *string,
	) (*Permission, error)
	FindForRole(
		ctx context.Context,
		roleID, resource string,
		tenantID *string,
	) (*Permission, error)
}

// Engine decides allow/deny for (subject, resource, action). The
// decision order is fixed and first match wins:
//
//  1. the admin role passes unconditionally
//  2. a user-level grant fully determines the outcome for its resource,
//     even when it allows fewer actions than the role would
//  3. a role-level grant determines the outcome the same way
//  4. the role's default permission map decides
//  5. deny
//
// Any store failure other than not-found denies; a lookup timeout is
// never an implicit allow.
type Engine struct {
	roles RoleStore
	perms PermissionStore
}

func NewEngine(roles RoleStore, perms PermissionStore) *Engine {
	return &Engine{roles: roles, perms: perms}
}

func (e *Engine) Allow(
	ctx context.Context,
	subject Subject,
	resource, action string,
) (bool, error) {
	if subject.RoleName == RoleAdmin {
		return true, nil
	}

	userPerm, err := e.perms.FindForUser(
		ctx,
		subject.UserID,
		resource,
		subject.TenantID,
	)
	if err == nil {
		return userPerm.Allows(action), nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return false, fmt.Errorf("permission check: %w", err)
	}

	if subject.RoleID != "" {
		rolePerm, err := e.perms.FindForRole(
			ctx,
			subject.RoleID,
			resource,
			subject.TenantID,
		)
		if err == nil {
			return rolePerm.Allows(action), nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return false, fmt.Errorf("permission check: %w", err)
		}

		role, err := e.roles.GetByID(ctx, subject.RoleID)
		if err == nil {
			return role.DefaultPermissions.Allows(resource, action), nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return false, fmt.Errorf("permission check: %w", err)
		}
	}

	return false, nil
}
