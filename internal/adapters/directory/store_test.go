package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
)

func TestStore_FindByEmail(t *testing.T) {
	store := NewDemo()

	id, ok := store.FindByEmail("sarah.johnson@hospital.com")
	require.True(t, ok)
	assert.Equal(t, "1", id.ID)
	assert.Equal(t, domainauth.RoleWorker, id.Role)
	assert.Equal(t, "Emergency Medicine", id.Department)
	assert.Equal(t, "EMP001", id.EmployeeID)
}

func TestStore_FindByEmail_CaseSensitive(t *testing.T) {
	store := NewDemo()

	_, ok := store.FindByEmail("Sarah.Johnson@hospital.com")
	assert.False(t, ok, "lookups are exact, not case-folded")

	_, ok = store.FindByEmail("nobody@hospital.com")
	assert.False(t, ok)
}

func TestStore_FindByBiometricRef(t *testing.T) {
	store := NewDemo()

	id, ok := store.FindByBiometricRef("bio_003")
	require.True(t, ok)
	assert.Equal(t, "emily.rodriguez@hospital.com", id.Email)
	assert.Equal(t, domainauth.RoleAdministrator, id.Role)

	_, ok = store.FindByBiometricRef("bio_999")
	assert.False(t, ok)

	_, ok = store.FindByBiometricRef("")
	assert.False(t, ok, "empty ref never matches, even if an identity has no ref")
}

func TestStore_DemoRosterCoversAllRoles(t *testing.T) {
	seen := make(map[domainauth.Role]bool)
	for _, id := range DemoIdentities() {
		require.True(t, id.Role.IsValid(), "identity %s has invalid role %q", id.ID, id.Role)
		seen[id.Role] = true
	}
	for _, role := range domainauth.ValidRoles() {
		assert.True(t, seen[role], "no demo identity for role %q", role)
	}
}

func TestStore_CustomRoster(t *testing.T) {
	store := New([]domainauth.Identity{
		{ID: "42", Email: "a@b.test", Role: domainauth.RoleWorker},
	})

	id, ok := store.FindByEmail("a@b.test")
	require.True(t, ok)
	assert.Equal(t, "42", id.ID)

	_, ok = store.FindByBiometricRef("bio_001")
	assert.False(t, ok)
}
