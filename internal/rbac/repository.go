// AngelaMos | 2026
// repository.go

package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/platform/internal/core"
)

type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*Role, error)
	GetByID(ctx context.Context, id string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
}

type PermissionRepository interface {
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
	Upsert(ctx context.Context, permission *Permission) error
	Delete(ctx context.Context, id string) error
	DeleteForOwner(ctx context.Context, owner Owner) error
	ListByOwner(ctx context.Context, owner Owner) ([]Permission, error)
}

type roleRepository struct {
	db core.DBTX
}

func NewRoleRepository(db core.DBTX) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) GetByName(
	ctx context.Context,
	name string,
) (*Role, error) {
	query := `
		SELECT id, name, display_name, default_permissions,
		       created_at, updated_at
		FROM roles
		WHERE name = $1`

	var role Role
	err := r.db.GetContext(ctx, &role, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role by name: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}

	return &role, nil
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*Role, error) {
	query := `
		SELECT id, name, display_name, default_permissions,
		       created_at, updated_at
		FROM roles
		WHERE id = $1`

	var role Role
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]Role, error) {
	query := `
		SELECT id, name, display_name, default_permissions,
		       created_at, updated_at
		FROM roles
		ORDER BY name`

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

type permissionRepository struct {
	db core.DBTX
}

func NewPermissionRepository(db core.DBTX) PermissionRepository {
	return &permissionRepository{db: db}
}

type permissionRow struct {
	ID        string     `db:"id"`
	OwnerKind string     `db:"owner_kind"`
	OwnerID   string     `db:"owner_id"`
	Resource  string     `db:"resource"`
	Actions   ActionList `db:"actions"`
	TenantID  *string    `db:"tenant_id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (row *permissionRow) toPermission() *Permission {
	var owner Owner
	switch ownerKind(row.OwnerKind) {
	case ownerUser:
		owner = UserOwner(row.OwnerID)
	case ownerRole:
		owner = RoleOwner(row.OwnerID)
	}

	return &Permission{
		ID:        row.ID,
		Owner:     owner,
		Resource:  row.Resource,
		Actions:   row.Actions,
		TenantID:  row.TenantID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// A tenant-scoped grant wins over a global one for the same owner and
// resource; NULLS LAST keeps that ordering.
const findPermissionQuery = `
	SELECT id, owner_kind, owner_id, resource, actions, tenant_id,
	       created_at, updated_at
	FROM permissions
	WHERE owner_kind = $1 AND owner_id = $2 AND resource = $3
	  AND (tenant_id IS NULL OR tenant_id = $4)
	ORDER BY tenant_id NULLS LAST
	LIMIT 1`

func (r *permissionRepository) FindForUser(
	ctx context.Context,
	userID, resource string,
	tenantID *string,
) (*Permission, error) {
	return r.find(ctx, string(ownerUser), userID, resource, tenantID)
}

func (r *permissionRepository) FindForRole(
	ctx context.Context,
	roleID, resource string,
	tenantID *string,
) (*Permission, error) {
	return r.find(ctx, string(ownerRole), roleID, resource, tenantID)
}

func (r *permissionRepository) find(
	ctx context.Context,
	kind, ownerID, resource string,
	tenantID *string,
) (*Permission, error) {
	var row permissionRow
	err := r.db.GetContext(
		ctx,
		&row,
		findPermissionQuery,
		kind,
		ownerID,
		resource,
		tenantID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find permission: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find permission: %w", err)
	}

	return row.toPermission(), nil
}

func (r *permissionRepository) Upsert(
	ctx context.Context,
	permission *Permission,
) error {
	if permission.Owner.IsZero() {
		return fmt.Errorf(
			"upsert permission: owner must be a user or a role: %w",
			core.ErrInvalidInput,
		)
	}

	if permission.ID == "" {
		permission.ID = uuid.New().String()
	}

	query := `
		INSERT INTO permissions (
			id, owner_kind, owner_id, resource, actions, tenant_id
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_kind, owner_id, resource, COALESCE(tenant_id, ''))
		DO UPDATE SET actions = EXCLUDED.actions, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	kind := string(ownerRole)
	if permission.Owner.IsUser() {
		kind = string(ownerUser)
	}

	var row permissionRow
	err := r.db.GetContext(ctx, &row, query,
		permission.ID,
		kind,
		permission.Owner.ID(),
		permission.Resource,
		permission.Actions,
		permission.TenantID,
	)
	if err != nil {
		return fmt.Errorf("upsert permission: %w", err)
	}

	permission.ID = row.ID
	permission.CreatedAt = row.CreatedAt
	permission.UpdatedAt = row.UpdatedAt

	return nil
}

func (r *permissionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM permissions WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete permission: %w", core.ErrNotFound)
	}

	return nil
}

// DeleteForOwner drops every record an owner holds. Zero deletions is
// not an error; callers use it to sweep overrides when the owner goes
// away.
func (r *permissionRepository) DeleteForOwner(
	ctx context.Context,
	owner Owner,
) error {
	if owner.IsZero() {
		return fmt.Errorf(
			"delete permissions: owner must be a user or a role: %w",
			core.ErrInvalidInput,
		)
	}

	query := `DELETE FROM permissions WHERE owner_kind = $1 AND owner_id = $2`

	kind := string(ownerRole)
	if owner.IsUser() {
		kind = string(ownerUser)
	}

	if _, err := r.db.ExecContext(ctx, query, kind, owner.ID()); err != nil {
		return fmt.Errorf("delete permissions: %w", err)
	}

	return nil
}

func (r *permissionRepository) ListByOwner(
	ctx context.Context,
	owner Owner,
) ([]Permission, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf(
			"list permissions: owner must be a user or a role: %w",
			core.ErrInvalidInput,
		)
	}

	query := `
		SELECT id, owner_kind, owner_id, resource, actions, tenant_id,
		       created_at, updated_at
		FROM permissions
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY resource`

	kind := string(ownerRole)
	if owner.IsUser() {
		kind = string(ownerUser)
	}

	var rows []permissionRow
	if err := r.db.SelectContext(ctx, &rows, query, kind, owner.ID()); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	permissions := make([]Permission, 0, len(rows))
	for i := range rows {
		permissions = append(permissions, *rows[i].toPermission())
	}

	return permissions, nil
}
