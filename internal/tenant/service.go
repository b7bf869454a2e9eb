// AngelaMos | 2026
// service.go

package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinichub/platform/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveActive validates a resolver-derived slug against the store.
// An unknown slug surfaces as ErrTenantUnresolved so callers route to
// the tenant-not-found experience instead of another tenant's data.
func (s *Service) ResolveActive(
	ctx context.Context,
	slug string,
) (*Tenant, error) {
	tenant, err := s.repo.GetBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf(
				"resolve tenant %q: %w",
				slug,
				core.ErrTenantUnresolved,
			)
		}
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	if !tenant.IsActive() {
		return nil, fmt.Errorf(
			"resolve tenant %q: %w",
			slug,
			core.ErrTenantSuspended,
		)
	}

	return tenant, nil
}

// IsActive reports whether the tenant exists and carries active status.
// Session hydration uses this to reject sessions bound to suspended or
// deleted clinics.
func (s *Service) IsActive(ctx context.Context, tenantID string) (bool, error) {
	tenant, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return tenant.IsActive(), nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.repo.GetBySlug(ctx, strings.ToLower(slug))
}

func (s *Service) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(
	ctx context.Context,
	slug, subdomain, displayName string,
) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, fmt.Errorf("create tenant: slug: %w", core.ErrInvalidInput)
	}

	if subdomain == "" {
		subdomain = slug
	}

	tenant := &Tenant{
		ID:          uuid.New().String(),
		Slug:        slug,
		Subdomain:   strings.ToLower(subdomain),
		DisplayName: displayName,
		Status:      StatusTrial,
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	return tenant, nil
}

// UpdateStatus changes the lifecycle status. Tenants are never hard
// deleted; suspension is the strongest action available.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf(
			"update tenant status: invalid status %q: %w",
			status,
			core.ErrInvalidInput,
		)
	}

	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}
