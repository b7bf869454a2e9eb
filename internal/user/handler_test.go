// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinichub/platform/internal/config"
	"github.com/clinichub/platform/internal/core"
	"github.com/clinichub/platform/internal/guard"
	"github.com/clinichub/platform/internal/rbac"
	"github.com/clinichub/platform/internal/session"
)

const (
	tenantA = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	tenantB = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

type fakeRepo struct {
	users map[string]*User
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return u, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeRepo) Update(_ context.Context, u *User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, id, roleID string) error {
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	u.RoleID = roleID
	u.RoleName = strings.TrimPrefix(roleID, "role-")
	return nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("deactivate user: %w", core.ErrNotFound)
	}
	u.Status = StatusDisabled
	return nil
}

func (f *fakeRepo) List(
	_ context.Context,
	filter map[string]any,
	_ ListUsersParams,
) ([]User, int, error) {
	var out []User
	for _, u := range f.users {
		if want, ok := filter["tenant_id"].(string); ok {
			if u.TenantID == nil || *u.TenantID != want {
				continue
			}
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeRoles struct{}

func (fakeRoles) GetByName(_ context.Context, name string) (*rbac.Role, error) {
	if !rbac.KnownRole(name) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	return &rbac.Role{ID: "role-" + name, Name: name}, nil
}

func (fakeRoles) GetByID(_ context.Context, id string) (*rbac.Role, error) {
	name := strings.TrimPrefix(id, "role-")
	if !rbac.KnownRole(name) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	return &rbac.Role{ID: id, Name: name}, nil
}

func (fakeRoles) List(context.Context) ([]rbac.Role, error) {
	return nil, nil
}

type denyRoleStore struct{}

func (denyRoleStore) GetByID(context.Context, string) (*rbac.Role, error) {
	return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
}

type denyPermStore struct{}

func (denyPermStore) FindForUser(
	context.Context, string, string, *string,
) (*rbac.Permission, error) {
	return nil, fmt.Errorf("find permission: %w", core.ErrNotFound)
}

func (denyPermStore) FindForRole(
	context.Context, string, string, *string,
) (*rbac.Permission, error) {
	return nil, fmt.Errorf("find permission: %w", core.ErrNotFound)
}

type activeTenants struct{}

func (activeTenants) IsActive(context.Context, string) (bool, error) {
	return true, nil
}

type handlerFixture struct {
	repo     *fakeRepo
	sessions *session.Manager
	router   *chi.Mux
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	tA, tB := tenantA, tenantB
	repo := &fakeRepo{users: map[string]*User{
		"admin-a": {
			ID:       "admin-a",
			Email:    "admin@a.clinic",
			RoleID:   "role-admin",
			RoleName: rbac.RoleAdmin,
			TenantID: &tA,
			Status:   StatusActive,
		},
		"staff-a": {
			ID:       "staff-a",
			Email:    "staff@a.clinic",
			RoleID:   "role-doctor",
			RoleName: rbac.RoleDoctor,
			TenantID: &tA,
			Status:   StatusActive,
		},
		"staff-b": {
			ID:       "staff-b",
			Email:    "staff@b.clinic",
			RoleID:   "role-doctor",
			RoleName: rbac.RoleDoctor,
			TenantID: &tB,
			Status:   StatusActive,
		},
	}}

	svc := NewService(nil, repo, fakeRoles{})

	cfg := config.SessionConfig{
		Secret:        "0123456789abcdef0123456789abcdef",
		Issuer:        "clinichub",
		Audience:      "clinichub-app",
		TTL:           time.Hour,
		SuperAdminTTL: time.Hour,
		CookieName:    "ch_session",
	}

	sessions, err := session.NewManager(cfg, false, svc, activeTenants{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	engine := rbac.NewEngine(denyRoleStore{}, denyPermStore{})
	g := guard.New(sessions, engine)

	router := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(router, g)

	return &handlerFixture{
		repo:     repo,
		sessions: sessions,
		router:   router,
	}
}

func (f *handlerFixture) request(method, target, body string) *http.Request {
	return httptest.NewRequest(method, target, strings.NewReader(body))
}

func (f *handlerFixture) asUser(t *testing.T, r *http.Request, userID string) {
	t.Helper()

	u := f.repo.users[userID]
	token, err := f.sessions.CreateSession(u.ID, u.TenantID, u.RoleName)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	r.AddCookie(f.sessions.SessionCookie(token, time.Hour))
}

func (f *handlerFixture) asSuperAdmin(t *testing.T, r *http.Request) {
	t.Helper()

	token, err := f.sessions.CreateSuperAdminSession("root@clinichub.io")
	if err != nil {
		t.Fatalf("CreateSuperAdminSession: %v", err)
	}
	r.AddCookie(f.sessions.SessionCookie(token, time.Hour))
}

func TestUpdateRoleRefusesForeignTenantTarget(t *testing.T) {
	f := newHandlerFixture(t)

	r := f.request(http.MethodPatch, "/users/staff-b/role", `{"role":"admin"}`)
	f.asUser(t, r, "admin-a")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := f.repo.users["staff-b"].RoleID; got != "role-doctor" {
		t.Errorf("staff-b role = %q, escalated across tenants", got)
	}
}

func TestUpdateRoleWithinTenant(t *testing.T) {
	f := newHandlerFixture(t)

	r := f.request(http.MethodPatch, "/users/staff-a/role", `{"role":"nurse"}`)
	f.asUser(t, r, "admin-a")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}
	if got := f.repo.users["staff-a"].RoleID; got != "role-nurse" {
		t.Errorf("staff-a role = %q, want role-nurse", got)
	}
}

func TestDeactivateRefusesForeignTenantTarget(t *testing.T) {
	f := newHandlerFixture(t)

	r := f.request(http.MethodPost, "/users/staff-b/deactivate", "")
	f.asUser(t, r, "admin-a")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := f.repo.users["staff-b"].Status; got != StatusActive {
		t.Errorf("staff-b status = %q, deactivated across tenants", got)
	}
}

func TestCreatePinsCallerTenant(t *testing.T) {
	f := newHandlerFixture(t)

	// The body names tenant B; the tenant-A admin's own tenant must win.
	body := fmt.Sprintf(
		`{"email":"new@a.clinic","password":"longpassword1","name":"New Staff","role":"nurse","tenant_id":%q}`,
		tenantB,
	)
	r := f.request(http.MethodPost, "/users/", body)
	f.asUser(t, r, "admin-a")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}

	var resp UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TenantID == nil || *resp.TenantID != tenantA {
		t.Errorf("tenant_id = %v, want %q", resp.TenantID, tenantA)
	}

	created := f.repo.users[resp.ID]
	if created == nil {
		t.Fatal("created user not persisted")
	}
	if created.TenantID == nil || *created.TenantID != tenantA {
		t.Errorf("persisted tenant_id = %v, want %q", created.TenantID, tenantA)
	}
}

func TestSuperAdminManagesAnyTenant(t *testing.T) {
	f := newHandlerFixture(t)

	r := f.request(http.MethodPatch, "/users/staff-b/role", `{"role":"nurse"}`)
	f.asSuperAdmin(t, r)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}
	if got := f.repo.users["staff-b"].RoleID; got != "role-nurse" {
		t.Errorf("staff-b role = %q, want role-nurse", got)
	}
}
