// AngelaMos | 2026
// entity.go

package rbac

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
	RoleAccountant   = "accountant"
)

func KnownRole(name string) bool {
	switch name {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RoleAccountant:
		return true
	}
	return false
}

// PermissionMap is a resource → allowed actions mapping stored as jsonb.
type PermissionMap map[string][]string

func (m PermissionMap) Allows(resource, action string) bool {
	for _, a := range m[resource] {
		if a == action {
			return true
		}
	}
	return false
}

func (m PermissionMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *PermissionMap) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("scan PermissionMap: unsupported type %T", src)
	}
}

// ActionList is a jsonb-backed set of action names.
type ActionList []string

func (l ActionList) Contains(action string) bool {
	for _, a := range l {
		if a == action {
			return true
		}
	}
	return false
}

func (l ActionList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *ActionList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("scan ActionList: unsupported type %T", src)
	}
}

type Role struct {
	ID                 string        `db:"id"`
	Name               string        `db:"name"`
	DisplayName        string        `db:"display_name"`
	DefaultPermissions PermissionMap `db:"default_permissions"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

type ownerKind string

const (
	ownerUser ownerKind = "user"
	ownerRole ownerKind = "role"
)

// Owner identifies who a permission grant attaches to: exactly one of a
// user or a role. The zero Owner is invalid; the only way to build a
// valid one is through UserOwner or RoleOwner, which makes the
// user-XOR-role constraint structural rather than checked at write time.
type Owner struct {
	kind ownerKind
	id   string
}

func UserOwner(userID string) Owner {
	return Owner{kind: ownerUser, id: userID}
}

func RoleOwner(roleID string) Owner {
	return Owner{kind: ownerRole, id: roleID}
}

func (o Owner) IsZero() bool {
	return o.kind == "" || o.id == ""
}

func (o Owner) IsUser() bool {
	return o.kind == ownerUser
}

func (o Owner) IsRole() bool {
	return o.kind == ownerRole
}

func (o Owner) ID() string {
	return o.id
}

func (o Owner) String() string {
	if o.IsZero() {
		return "owner(invalid)"
	}
	return fmt.Sprintf("%s:%s", o.kind, o.id)
}

// Permission is an explicit grant record. Grants are additive at the
// taxonomy level but a user-level grant fully overrides the role's
// stance for its resource, including an empty action list.
type Permission struct {
	ID        string
	Owner     Owner
	Resource  string
	Actions   ActionList
	TenantID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Permission) Allows(action string) bool {
	return p.Actions.Contains(action)
}
