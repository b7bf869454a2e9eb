// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/guard"
	"github.com/clinichub/platform/internal/session"
)

type Handler struct {
	service   *Service
	sessions  *session.Manager
	validator *validator.Validate
}

func NewHandler(service *Service, sessions *session.Manager) *Handler {
	return &Handler{
		service:   service,
		sessions:  sessions,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, g *guard.Guard) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Route("/superadmin", func(r chi.Router) {
			r.Post("/login", h.SuperAdminLogin)
			r.Post("/logout", h.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(g.RequireSession)
			r.Get("/session", h.GetSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	http.SetCookie(w, h.sessions.SessionCookie(token, h.sessions.TTL()))

	core.OK(w, LoginResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.RoleName,
		TenantID: user.TenantID,
	})
}

func (h *Handler) SuperAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req SuperAdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	token, err := h.service.SuperAdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	http.SetCookie(
		w,
		h.sessions.SessionCookie(token, h.sessions.SuperAdminTTL()),
	)

	core.OK(w, SuperAdminLoginResponse{Email: req.Email})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessions.ClearSessionCookie())
	core.NoContent(w)
}

// GetSession describes the current principal without touching the
// database beyond the hydration the guard already performed.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	if guard.IsSuperAdmin(r.Context()) {
		sess, _ := guard.GetSession(r.Context()).(session.SuperAdminSession)
		core.OK(w, map[string]any{
			"super_admin": true,
			"email":       sess.Email,
		})
		return
	}

	user := guard.GetUser(r.Context())
	if user == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, LoginResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.RoleName,
		TenantID: user.TenantID,
	})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := guard.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	token, err := h.service.ChangePassword(
		r.Context(),
		userID,
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	http.SetCookie(w, h.sessions.SessionCookie(token, h.sessions.TTL()))
	core.NoContent(w)
}
