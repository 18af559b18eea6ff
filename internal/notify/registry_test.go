package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/shared/apperrors"
)

func TestJoinOwnRoomIsRoleScoped(t *testing.T) {
	registry := NewRegistry()

	driver := connect(registry, "d1", authdomain.RoleDriver)
	require.NoError(t, registry.JoinOwnRoom(driver))
	assert.Len(t, registry.collect(driverRoom("d1")), 1)

	student := connect(registry, "s1", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(student))
	assert.Len(t, registry.collect(studentRoom("s1")), 1)

	// Admins have no per-identity room.
	admin := connect(registry, "a1", authdomain.RoleAdmin)
	assert.ErrorIs(t, registry.JoinOwnRoom(admin), apperrors.ErrForbidden)
}

func TestRoomNameComesFromPrincipal(t *testing.T) {
	registry := NewRegistry()

	// The session's room is derived from its own identity; there is no way
	// to land in d2's room with d1's principal.
	driver := connect(registry, "d1", authdomain.RoleDriver)
	require.NoError(t, registry.JoinOwnRoom(driver))

	assert.Empty(t, registry.collect(driverRoom("d2")))
	assert.Len(t, registry.collect(driverRoom("d1")), 1)
}

func TestAdminRoomRejectsOthers(t *testing.T) {
	registry := NewRegistry()

	admin := connect(registry, "a1", authdomain.RoleAdmin)
	require.NoError(t, registry.JoinAdminRoom(admin))

	driver := connect(registry, "d1", authdomain.RoleDriver)
	assert.ErrorIs(t, registry.JoinAdminRoom(driver), apperrors.ErrForbidden)

	student := connect(registry, "s1", authdomain.RoleStudent)
	assert.ErrorIs(t, registry.JoinAdminRoom(student), apperrors.ErrForbidden)

	assert.Len(t, registry.collect(adminRoom), 1)
}

func TestRemoveLeavesAllRooms(t *testing.T) {
	registry := NewRegistry()

	s := connect(registry, "s1", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(s))
	registry.WatchVehicles(s)
	require.Equal(t, 1, registry.Connected())

	registry.Remove(s.ID)

	assert.Equal(t, 0, registry.Connected())
	assert.Empty(t, registry.collect(studentRoom("s1")))
	assert.Empty(t, registry.collect(vehicleWatch))

	// Removing twice is a no-op.
	registry.Remove(s.ID)
}

func TestJoinAfterRemoveIsIgnored(t *testing.T) {
	registry := NewRegistry()

	s := connect(registry, "s1", authdomain.RoleStudent)
	registry.Remove(s.ID)

	require.NoError(t, registry.JoinOwnRoom(s))
	assert.Empty(t, registry.collect(studentRoom("s1")))
}

func TestCollectDeduplicates(t *testing.T) {
	registry := NewRegistry()

	admin := connect(registry, "a1", authdomain.RoleAdmin)
	require.NoError(t, registry.JoinAdminRoom(admin))
	registry.WatchVehicles(admin)

	assert.Len(t, registry.collect(adminRoom, vehicleWatch), 1)
}
