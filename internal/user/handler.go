// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/guard"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, g *guard.Guard) {
	r.Route("/users", func(r chi.Router) {
		r.Use(g.RequireSession)

		r.Get("/me", h.GetMe)
		r.Patch("/me", h.UpdateMe)

		r.With(g.RequirePermission("users", "read")).
			Get("/", h.List)
		r.With(g.RequirePermission("users", "create")).
			Post("/", h.Create)

		// Role and lifecycle changes stay admin-only regardless of
		// any permission grants on the users resource.
		r.Group(func(r chi.Router) {
			r.Use(g.RequireAdmin)
			r.Patch("/{userID}/role", h.UpdateRole)
			r.Post("/{userID}/deactivate", h.Deactivate)
		})
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := guard.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	u, err := h.service.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.Unauthorized(w, "")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := guard.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Search: r.URL.Query().Get("search"),
		Role:   r.URL.Query().Get("role"),
	}
	params.Page = core.QueryInt(r, "page", 1)
	params.PageSize = core.QueryInt(r, "page_size", 20)

	filter, err := guard.WithTenantFilter(r.Context(), nil)
	if err != nil {
		core.JSONError(w, core.ForbiddenError(""))
		return
	}

	users, total, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UserListResponse{
		Users: ToUserResponseList(users),
		Total: total,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	// New staff always land in the caller's tenant; only a super admin
	// may target another one. A request body carrying a foreign
	// tenant_id is overwritten, not trusted.
	if !guard.IsSuperAdmin(r.Context()) {
		u := guard.GetUser(r.Context())
		if u == nil {
			core.Unauthorized(w, "")
			return
		}
		req.TenantID = u.TenantID
	}

	created, err := h.service.CreateStaff(r.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("email"))
			return
		}
		if errors.Is(err, core.ErrNotFound) ||
			errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "unknown role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToUserResponse(created))
}

// scopedTarget loads the target user through the caller's tenant
// filter. A user outside the caller's tenant reads as not found, never
// as forbidden, so cross-tenant IDs stay unguessable. Super-admin
// callers carry no tenant predicate and see every user.
func (h *Handler) scopedTarget(
	w http.ResponseWriter,
	r *http.Request,
	userID string,
) (*User, bool) {
	filter, err := guard.WithTenantFilter(r.Context(), nil)
	if err != nil {
		core.JSONError(w, core.ForbiddenError(""))
		return nil, false
	}

	target, err := h.service.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return nil, false
		}
		core.InternalServerError(w, err)
		return nil, false
	}

	if want, scoped := filter["tenant_id"].(string); scoped {
		if target.TenantID == nil || *target.TenantID != want {
			core.NotFound(w, "user")
			return nil, false
		}
	}

	return target, true
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		core.BadRequest(w, "user ID required")
		return
	}

	if _, ok := h.scopedTarget(w, r, userID); !ok {
		return
	}

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateRole(r.Context(), userID, req.Role)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "unknown role")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		core.BadRequest(w, "user ID required")
		return
	}

	if userID == guard.GetUserID(r.Context()) {
		core.BadRequest(w, "cannot deactivate your own account")
		return
	}

	if _, ok := h.scopedTarget(w, r, userID); !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
