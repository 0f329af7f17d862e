// Package authz implements the scope-based authorization model for quality
// actions: which actors may open an action for editing, and which fields and
// status transitions are available to them once inside. Every decision is a
// pure function of an actor snapshot and an action snapshot; the package
// holds no state and performs no I/O.
package authz

// Role is the closed set of organizational roles. Each role carries its own
// hand-specified edit rule; the set is intentionally not a strict hierarchy.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleTeamLeader Role = "team_leader"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// ParseRole maps a stored role value onto the enumeration. Unknown values
// return false so callers fail closed rather than falling through silently.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOperator, RoleTeamLeader, RoleSupervisor, RoleManager, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Label returns the display name used by the presentation layer.
func (r Role) Label() string {
	switch r {
	case RoleOperator:
		return "Operator"
	case RoleTeamLeader:
		return "Team Leader"
	case RoleSupervisor:
		return "Supervisor"
	case RoleManager:
		return "Manager"
	case RoleAdmin:
		return "Administrator"
	}
	return "Read Only"
}
