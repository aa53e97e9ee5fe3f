package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	directory "github.com/medmanager/go-directory"
)

func TestCapabilitiesOfAdministrator(t *testing.T) {
	caps := directory.CapabilitiesOf(directory.RoleAdministrator)

	assert.True(t, caps.CanView)
	assert.True(t, caps.CanCreate)
	assert.True(t, caps.CanEdit)
	assert.True(t, caps.CanToggleStatus)
	assert.True(t, caps.CanDelete)
}

func TestCapabilitiesOfNonAdministratorRoles(t *testing.T) {
	for _, role := range []directory.Role{
		directory.RoleDoctor,
		directory.RolePatient,
		directory.RoleCoordinator,
	} {
		caps := directory.CapabilitiesOf(role)

		assert.True(t, caps.CanView, "role %s should view the roster", role)
		assert.False(t, caps.CanCreate, "role %s should not create", role)
		assert.False(t, caps.CanEdit, "role %s should not edit", role)
		assert.False(t, caps.CanToggleStatus, "role %s should not toggle status", role)
		assert.False(t, caps.CanDelete, "role %s should not delete", role)
	}
}

func TestCapabilitiesOfUnknownRole(t *testing.T) {
	caps := directory.CapabilitiesOf(directory.Role("Janitor"))
	assert.Equal(t, directory.Capabilities{}, caps)
}

func TestRoleKeys(t *testing.T) {
	assert.Equal(t, 1, directory.RoleAdministrator.Key())
	assert.Equal(t, 2, directory.RoleDoctor.Key())
	assert.Equal(t, 3, directory.RolePatient.Key())
	assert.Equal(t, 4, directory.RoleCoordinator.Key())
	assert.Equal(t, 0, directory.Role("Janitor").Key())
}

func TestRoleFromKey(t *testing.T) {
	role, ok := directory.RoleFromKey(2)
	assert.True(t, ok)
	assert.Equal(t, directory.RoleDoctor, role)

	_, ok = directory.RoleFromKey(9)
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	role, ok := directory.ParseRole("Doctor")
	assert.True(t, ok)
	assert.Equal(t, directory.RoleDoctor, role)

	_, ok = directory.ParseRole("doctor")
	assert.False(t, ok)
}
