package directory

// Role is one of the closed set of directory roles. The remote service
// stores roles under stable numeric keys; the wire format for reads is the
// display name.
type Role string

const (
	// RoleAdministrator manages the full roster (key 1)
	RoleAdministrator Role = "Administrator"
	// RoleDoctor is medical staff (key 2)
	RoleDoctor Role = "Doctor"
	// RolePatient is a patient account (key 3)
	RolePatient Role = "Patient"
	// RoleCoordinator coordinates care teams (key 4)
	RoleCoordinator Role = "Coordinator"
)

// Capabilities is the set of roster actions a role may perform. Absence of a
// capability suppresses the corresponding affordance; the server remains the
// authoritative check.
type Capabilities struct {
	CanView         bool
	CanCreate       bool
	CanEdit         bool
	CanToggleStatus bool
	CanDelete       bool
}

// CapabilitiesOf derives the capability set for a role. Every rendering
// decision goes through this one function. Only administrators may mutate
// the roster; every other role gets the read-only view.
func CapabilitiesOf(role Role) Capabilities {
	if role == RoleAdministrator {
		return Capabilities{
			CanView:         true,
			CanCreate:       true,
			CanEdit:         true,
			CanToggleStatus: true,
			CanDelete:       true,
		}
	}
	return Capabilities{CanView: role.IsValid()}
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleDoctor, RolePatient, RoleCoordinator:
		return true
	default:
		return false
	}
}

// Key returns the stable numeric key the service uses for this role, or 0
// for unknown roles.
func (r Role) Key() int {
	switch r {
	case RoleAdministrator:
		return 1
	case RoleDoctor:
		return 2
	case RolePatient:
		return 3
	case RoleCoordinator:
		return 4
	default:
		return 0
	}
}

// Label returns the human-readable display label.
func (r Role) Label() string {
	switch r {
	case RoleAdministrator:
		return "Administrator"
	case RoleDoctor:
		return "Doctor"
	case RolePatient:
		return "Patient"
	case RoleCoordinator:
		return "Coordinator"
	default:
		return string(r)
	}
}

// AllRoles returns the predefined roles in key order.
func AllRoles() []Role {
	return []Role{
		RoleAdministrator,
		RoleDoctor,
		RolePatient,
		RoleCoordinator,
	}
}

// ParseRole safely parses a string into a Role.
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// RoleFromKey resolves a numeric role key to its Role.
func RoleFromKey(key int) (Role, bool) {
	for _, role := range AllRoles() {
		if role.Key() == key {
			return role, true
		}
	}
	return "", false
}
