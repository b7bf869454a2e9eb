// AngelaMos | 2026
// entity.go

package tenant

import (
	"time"
)

type Tenant struct {
	ID          string    `db:"id"`
	Slug        string    `db:"slug"`
	Subdomain   string    `db:"subdomain"`
	DisplayName string    `db:"display_name"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusTrial     = "trial"
)

func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusSuspended, StatusTrial:
		return true
	}
	return false
}
