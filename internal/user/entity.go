// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/clinichub/platform/internal/rbac"
)

// User is a staff member of one clinic. TenantID is nil only for
// accounts managed outside the tenant space. Users are never physically
// deleted; deactivation flips Status so the audit trail stays intact.
type User struct {
	ID            string     `db:"id"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password_hash"`
	Name          string     `db:"name"`
	RoleID        string     `db:"role_id"`
	RoleName      string     `db:"role_name"`
	TenantID      *string    `db:"tenant_id"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeactivatedAt *time.Time `db:"deactivated_at"`
}

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) IsAdmin() bool {
	return u.RoleName == rbac.RoleAdmin
}
