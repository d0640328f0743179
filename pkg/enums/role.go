package enums

import "strings"

// Role is the lowercased role name carried in access tokens.
type Role string

const (
	RoleClient  Role = "client"
	RoleManager Role = "manager"
	RoleSeller  Role = "seller"
)

var builtinRoles = []Role{RoleClient, RoleManager, RoleSeller}

// BuiltinRoles returns the roles seeded by migrations.
func BuiltinRoles() []Role {
	return append([]Role(nil), builtinRoles...)
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the role is non-empty. Managers may create roles
// beyond the built-in set, so any normalized name is accepted.
func (r Role) IsValid() bool {
	return r != "" && NormalizeRole(string(r)) == r
}

// IsBuiltin reports whether the role is one of the seeded roles.
func (r Role) IsBuiltin() bool {
	for _, candidate := range builtinRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// NormalizeRole lowercases and trims a stored role name.
func NormalizeRole(value string) Role {
	return Role(strings.ToLower(strings.TrimSpace(value)))
}
