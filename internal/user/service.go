// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/rbac"
	"github.com/clinichub/platform/internal/session"
)

type Service struct {
	db    *sqlx.DB
	repo  Repository
	roles rbac.RoleRepository
}

func NewService(db *sqlx.DB, repo Repository, roles rbac.RoleRepository) *Service {
	return &Service{
		db:    db,
		repo:  repo,
		roles: roles,
	}
}

var _ session.UserProvider = (*Service)(nil)

// GetSessionUser hydrates the identity referenced by a verified session
// token. Callers treat core.ErrNotFound as a stale session.
func (s *Service) GetSessionUser(
	ctx context.Context,
	id string,
) (*session.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toSessionUser(u), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*session.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	return toSessionUser(u), u.PasswordHash, nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*session.User, string, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	return toSessionUser(u), u.PasswordHash, nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

func (s *Service) CreateStaff(
	ctx context.Context,
	req CreateStaffRequest,
) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("create staff: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("create staff: %w", core.ErrDuplicateKey)
	}

	if !rbac.KnownRole(req.Role) {
		return nil, fmt.Errorf(
			"create staff: unknown role %q: %w", req.Role, core.ErrInvalidInput,
		)
	}

	role, err := s.roles.GetByName(ctx, req.Role)
	if err != nil {
		return nil, fmt.Errorf("create staff: resolve role %q: %w", req.Role, err)
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("create staff: %w", err)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         req.Name,
		RoleID:       role.ID,
		RoleName:     role.Name,
		TenantID:     req.TenantID,
		Status:       StatusActive,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) UpdateRole(
	ctx context.Context,
	id string,
	roleName string,
) (*User, error) {
	if !rbac.KnownRole(roleName) {
		return nil, fmt.Errorf(
			"update role: unknown role %q: %w", roleName, core.ErrInvalidInput,
		)
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("update role: resolve role %q: %w", roleName, err)
	}

	if err := s.repo.UpdateRole(ctx, id, role.ID); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Deactivate flips the user to deactivated and sweeps any user-level
// permission overrides in the same transaction, so a reactivated
// account starts from its role's grants alone.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).Deactivate(ctx, id); err != nil {
			return err
		}

		perms := rbac.NewPermissionRepository(tx)
		if err := perms.DeleteForOwner(ctx, rbac.UserOwner(id)); err != nil {
			return fmt.Errorf("deactivate user: %w", err)
		}

		return nil
	})
}

func (s *Service) List(
	ctx context.Context,
	filter map[string]any,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, filter, params)
}

func toSessionUser(u *User) *session.User {
	return &session.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		RoleID:   u.RoleID,
		RoleName: u.RoleName,
		TenantID: u.TenantID,
		Status:   u.Status,
	}
}
