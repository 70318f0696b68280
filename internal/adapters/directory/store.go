// Package directory provides the fixed in-memory credential directory used by
// the demo deployment. Identities are seeded at construction and immutable
// afterwards, so lookups need no locking.
package directory

import (
	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
)

// Store is an in-memory ports.CredentialStore backed by a fixed identity set.
type Store struct {
	byEmail        map[string]domainauth.Identity
	byBiometricRef map[string]domainauth.Identity
}

// New creates a Store seeded with the given identities. Later entries win on
// duplicate email or biometric reference.
func New(identities []domainauth.Identity) *Store {
	s := &Store{
		byEmail:        make(map[string]domainauth.Identity, len(identities)),
		byBiometricRef: make(map[string]domainauth.Identity, len(identities)),
	}
	for _, id := range identities {
		s.byEmail[id.Email] = id
		if id.BiometricRef != "" {
			s.byBiometricRef[id.BiometricRef] = id
		}
	}
	return s
}

// DemoBiometricRef is the reference the simulated sensor resolves when no
// identity has been established yet.
const DemoBiometricRef = "bio_001"

// NewDemo creates a Store seeded with the built-in demo roster.
func NewDemo() *Store {
	return New(DemoIdentities())
}

// DemoIdentities returns the built-in demo roster, one identity per role.
func DemoIdentities() []domainauth.Identity {
	return []domainauth.Identity{
		{
			ID:           "1",
			DisplayName:  "Dr. Sarah Johnson",
			Email:        "sarah.johnson@hospital.com",
			Role:         domainauth.RoleWorker,
			Department:   "Emergency Medicine",
			EmployeeID:   "EMP001",
			BiometricRef: "bio_001",
		},
		{
			ID:           "2",
			DisplayName:  "Michael Chen",
			Email:        "michael.chen@hospital.com",
			Role:         domainauth.RolePeopleOps,
			Department:   "Human Resources",
			EmployeeID:   "HR001",
			BiometricRef: "bio_002",
		},
		{
			ID:           "3",
			DisplayName:  "Emily Rodriguez",
			Email:        "emily.rodriguez@hospital.com",
			Role:         domainauth.RoleAdministrator,
			Department:   "Administration",
			EmployeeID:   "ADM001",
			BiometricRef: "bio_003",
		},
		{
			ID:           "4",
			DisplayName:  "James Wilson",
			Email:        "james.wilson@hospital.com",
			Role:         domainauth.RoleExecutive,
			Department:   "Executive",
			EmployeeID:   "EXE001",
			BiometricRef: "bio_004",
		},
	}
}

// FindByEmail looks up an identity by exact email match.
func (s *Store) FindByEmail(email string) (domainauth.Identity, bool) {
	id, ok := s.byEmail[email]
	return id, ok
}

// FindByBiometricRef looks up an identity by exact biometric reference match.
func (s *Store) FindByBiometricRef(ref string) (domainauth.Identity, bool) {
	if ref == "" {
		return domainauth.Identity{}, false
	}
	id, ok := s.byBiometricRef[ref]
	return id, ok
}
