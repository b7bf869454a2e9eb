// AngelaMos | 2026
// handler.go

package rbac

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinichub/platform/internal/core"
)

type Handler struct {
	roles     RoleRepository
	perms     PermissionRepository
	validator *validator.Validate
}

func NewHandler(roles RoleRepository, perms PermissionRepository) *Handler {
	return &Handler{
		roles:     roles,
		perms:     perms,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts role and permission management. These routes are
// gated by a direct admin role check instead of a resource/action grant:
// permission records must not be able to open up permission management
// itself. TODO: revisit whether role listing alone can move under a
// "roles:read" grant for non-admin staff.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireSession, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/roles", func(r chi.Router) {
		r.Use(requireSession)
		r.Use(adminOnly)

		r.Get("/", h.ListRoles)
		r.Get("/{name}", h.GetRole)
	})

	r.Route("/permissions", func(r chi.Router) {
		r.Use(requireSession)
		r.Use(adminOnly)

		r.Get("/", h.ListPermissions)
		r.Post("/", h.GrantPermission)
		r.Delete("/{permissionID}", h.RevokePermission)
	})
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		responses = append(responses, toRoleResponse(&roles[i]))
	}

	core.OK(w, RoleListResponse{Roles: responses})
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	role, err := h.roles.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toRoleResponse(role))
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromQuery(r)
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	permissions, err := h.perms.ListByOwner(r.Context(), owner)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]PermissionResponse, 0, len(permissions))
	for i := range permissions {
		responses = append(responses, toPermissionResponse(&permissions[i]))
	}

	core.OK(w, PermissionListResponse{Permissions: responses})
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req GrantPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	owner, err := req.owner()
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	permission := &Permission{
		Owner:    owner,
		Resource: req.Resource,
		Actions:  req.Actions,
		TenantID: req.TenantID,
	}

	if err := h.perms.Upsert(r.Context(), permission); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "permission owner must be a user or a role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, toPermissionResponse(permission))
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	permissionID := chi.URLParam(r, "permissionID")
	if permissionID == "" {
		core.BadRequest(w, "permission ID required")
		return
	}

	if err := h.perms.Delete(r.Context(), permissionID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "permission")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

type GrantPermissionRequest struct {
	UserID   *string  `json:"user_id"   validate:"omitempty,uuid"`
	RoleID   *string  `json:"role_id"   validate:"omitempty,uuid"`
	Resource string   `json:"resource"  validate:"required,min=1,max=100"`
	Actions  []string `json:"actions"   validate:"required"`
	TenantID *string  `json:"tenant_id" validate:"omitempty,uuid"`
}

func (req *GrantPermissionRequest) owner() (Owner, error) {
	switch {
	case req.UserID != nil && req.RoleID != nil:
		return Owner{}, errors.New(
			"permission must target a user or a role, not both",
		)
	case req.UserID != nil:
		return UserOwner(*req.UserID), nil
	case req.RoleID != nil:
		return RoleOwner(*req.RoleID), nil
	default:
		return Owner{}, errors.New("permission must target a user or a role")
	}
}

func ownerFromQuery(r *http.Request) (Owner, error) {
	userID := r.URL.Query().Get("user_id")
	roleID := r.URL.Query().Get("role_id")

	switch {
	case userID != "" && roleID != "":
		return Owner{}, errors.New("specify user_id or role_id, not both")
	case userID != "":
		return UserOwner(userID), nil
	case roleID != "":
		return RoleOwner(roleID), nil
	default:
		return Owner{}, errors.New("user_id or role_id required")
	}
}

type RoleResponse struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	DisplayName        string        `json:"display_name"`
	DefaultPermissions PermissionMap `json:"default_permissions"`
}

type RoleListResponse struct {
	Roles []RoleResponse `json:"roles"`
}

type PermissionResponse struct {
	ID       string   `json:"id"`
	Owner    string   `json:"owner"`
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
	TenantID *string  `json:"tenant_id,omitempty"`
}

type PermissionListResponse struct {
	Permissions []PermissionResponse `json:"permissions"`
}

func toRoleResponse(role *Role) RoleResponse {
	return RoleResponse{
		ID:                 role.ID,
		Name:               role.Name,
		DisplayName:        role.DisplayName,
		DefaultPermissions: role.DefaultPermissions,
	}
}

func toPermissionResponse(p *Permission) PermissionResponse {
	return PermissionResponse{
		ID:       p.ID,
		Owner:    p.Owner.String(),
		Resource: p.Resource,
		Actions:  p.Actions,
		TenantID: p.TenantID,
	}
}
