// AngelaMos | 2026
// repository.go

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinichub/platform/internal/core"
)

type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	GetByID(ctx context.Context, id string) (*Tenant, error)
	UpdateStatus(ctx context.Context, id, status string) error
	List(ctx context.Context) ([]Tenant, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tenant *Tenant) error {
	query := `
		INSERT INTO tenants (id, slug, subdomain, display_name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, tenant, query,
		tenant.ID,
		tenant.Slug,
		tenant.Subdomain,
		tenant.DisplayName,
		tenant.Status,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	return nil
}

func (r *repository) GetBySlug(
	ctx context.Context,
	slug string,
) (*Tenant, error) {
	query := `
		SELECT id, slug, subdomain, display_name, status,
		       created_at, updated_at
		FROM tenants
		WHERE slug = $1`

	var tenant Tenant
	err := r.db.GetContext(ctx, &tenant, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tenant by slug: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}

	return &tenant, nil
}

func (r *repository) GetBySubdomain(
	ctx context.Context,
	subdomain string,
) (*Tenant, error) {
	query := `
		SELECT id, slug, subdomain, display_name, status,
		       created_at, updated_at
		FROM tenants
		WHERE subdomain = $1`

	var tenant Tenant
	err := r.db.GetContext(ctx, &tenant, query, subdomain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tenant by subdomain: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by subdomain: %w", err)
	}

	return &tenant, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	query := `
		SELECT id, slug, subdomain, display_name, status,
		       created_at, updated_at
		FROM tenants
		WHERE id = $1`

	var tenant Tenant
	err := r.db.GetContext(ctx, &tenant, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	return &tenant, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id, status string,
) error {
	query := `
		UPDATE tenants
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update tenant status: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context) ([]Tenant, error) {
	query := `
		SELECT id, slug, subdomain, display_name, status,
		       created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC`

	var tenants []Tenant
	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	return tenants, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
