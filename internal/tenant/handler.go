// AngelaMos | 2026
// handler.go

package tenant

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinichub/platform/internal/core"
)

type Handler struct {
	service   *Service
	resolver  *Resolver
	validator *validator.Validate
}

func NewHandler(service *Service, resolver *Resolver) *Handler {
	return &Handler{
		service:   service,
		resolver:  resolver,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireSession, superAdminOnly func(http.Handler) http.Handler,
) {
	r.Route("/tenants", func(r chi.Router) {
		r.Get("/current", h.GetCurrent)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Use(superAdminOnly)
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Patch("/{tenantID}/status", h.UpdateStatus)
		})
	})
}

// GetCurrent is public: API paths bypass the resolver middleware, so the
// slug is derived from the request host when the context carries none.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	slug := SlugFromContext(r.Context())
	if slug == "" {
		host := r.Header.Get("X-Forwarded-Host")
		if host == "" {
			host = r.Host
		}
		slug = h.resolver.SlugFromHost(host)
	}
	if slug == "" {
		core.JSONError(w, core.TenantNotFoundError("unknown"))
		return
	}

	tenant, err := h.service.ResolveActive(r.Context(), slug)
	if err != nil {
		if errors.Is(err, core.ErrTenantUnresolved) ||
			errors.Is(err, core.ErrTenantSuspended) {
			core.JSONError(w, core.TenantNotFoundError(slug))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toTenantResponse(tenant))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	responses := make([]TenantResponse, 0, len(tenants))
	for i := range tenants {
		responses = append(responses, toTenantResponse(&tenants[i]))
	}

	core.OK(w, TenantListResponse{Tenants: responses})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tenant, err := h.service.Create(
		r.Context(),
		req.Slug,
		req.Subdomain,
		req.DisplayName,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("slug"))
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid tenant slug")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, toTenantResponse(tenant))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		core.BadRequest(w, "tenant ID required")
		return
	}

	var req UpdateTenantStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.UpdateStatus(r.Context(), tenantID, req.Status); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "tenant")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid tenant status")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

type CreateTenantRequest struct {
	Slug        string `json:"slug"         validate:"required,min=2,max=63"`
	Subdomain   string `json:"subdomain"    validate:"omitempty,min=2,max=63"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=200"`
}

type UpdateTenantStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended trial"`
}

type TenantResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Subdomain   string    `json:"subdomain"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type TenantListResponse struct {
	Tenants []TenantResponse `json:"tenants"`
}

func toTenantResponse(t *Tenant) TenantResponse {
	return TenantResponse{
		ID:          t.ID,
		Slug:        t.Slug,
		Subdomain:   t.Subdomain,
		DisplayName: t.DisplayName,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
	}
}
