package auth

// Package auth contains domain-level types for identities, sessions, and
// route authorization. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and JSON payloads.
// Valid values are defined as constants below.
type Role string

const (
	RoleWorker        Role = "worker"
	RolePeopleOps     Role = "people-ops"
	RoleAdministrator Role = "administrator"
	RoleExecutive     Role = "executive"
)

// ValidRoles returns all roles the directory may assign.
func ValidRoles() []Role {
	return []Role{RoleWorker, RolePeopleOps, RoleAdministrator, RoleExecutive}
}

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleWorker, RolePeopleOps, RoleAdministrator, RoleExecutive:
		return true
	}
	return false
}

const (
	// InactivityTimeout is the fixed idle period after which a session is
	// forcibly logged out.
	InactivityTimeout = 30 * time.Minute

	// WarningThreshold is the remaining time under which callers should warn
	// the user about the upcoming logout. It is derived from the session,
	// never stored on it.
	WarningThreshold = 5 * time.Minute
)

// Identity is the authenticated principal resolved by the credential
// directory. It is immutable once bound to a session.
type Identity struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Department   string `json:"department"`
	EmployeeID   string `json:"employee_id"`
	BiometricRef string `json:"biometric_ref,omitempty"`
}

// Session is the live, in-memory proof of authentication. At most one
// Session exists at a time; binding a new Identity replaces, never merges,
// any prior record. LastActivityAt never precedes EstablishedAt.
type Session struct {
	Identity       Identity  `json:"identity"`
	EstablishedAt  time.Time `json:"established_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
