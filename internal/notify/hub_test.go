package notify

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/shared/util"
)

func newTestHub() (*Hub, *Registry) {
	registry := NewRegistry()
	return NewHub(registry, util.NewWithWriter(io.Discard)), registry
}

func connect(r *Registry, id string, role authdomain.Role) *Session {
	s := NewSession(id, authdomain.Principal{ID: id, Role: role})
	r.Add(s)
	return s
}

func drain(s *Session) []envelope {
	var out []envelope
	for {
		select {
		case frame := <-s.Out:
			var env envelope
			_ = json.Unmarshal(frame, &env)
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestRideCreatedReachesDriverAndAdmin(t *testing.T) {
	hub, registry := newTestHub()

	driver := connect(registry, "d1", authdomain.RoleDriver)
	require.NoError(t, registry.JoinOwnRoom(driver))
	otherDriver := connect(registry, "d2", authdomain.RoleDriver)
	require.NoError(t, registry.JoinOwnRoom(otherDriver))
	admin := connect(registry, "a1", authdomain.RoleAdmin)
	require.NoError(t, registry.JoinAdminRoom(admin))
	student := connect(registry, "s1", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(student))

	hub.Publish(event.RideCreated{RideID: "r1", StudentID: "s1", DriverID: "d1"})

	got := drain(driver)
	require.Len(t, got, 1)
	assert.Equal(t, "new-ride-request", got[0].Type)

	require.Len(t, drain(admin), 1)
	assert.Empty(t, drain(otherDriver))
	assert.Empty(t, drain(student))
}

func TestStatusChangeReachesBothParties(t *testing.T) {
	hub, registry := newTestHub()

	driver := connect(registry, "d1", authdomain.RoleDriver)
	require.NoError(t, registry.JoinOwnRoom(driver))
	student := connect(registry, "s1", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(student))
	bystander := connect(registry, "s2", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(bystander))

	hub.Publish(event.RideStatusChanged{RideID: "r1", StudentID: "s1", DriverID: "d1", Status: "accepted"})

	require.Len(t, drain(driver), 1)
	got := drain(student)
	require.Len(t, got, 1)
	assert.Equal(t, "ride-status-updated", got[0].Type)
	assert.Empty(t, drain(bystander))
}

func TestLocationReachesWatchersOnce(t *testing.T) {
	hub, registry := newTestHub()

	watcher := connect(registry, "s1", authdomain.RoleStudent)
	registry.WatchVehicles(watcher)

	// An admin in both scopes still gets a single copy.
	admin := connect(registry, "a1", authdomain.RoleAdmin)
	require.NoError(t, registry.JoinAdminRoom(admin))
	registry.WatchVehicles(admin)

	hub.Publish(event.LocationChanged{VehicleID: "v1", DriverID: "d1", Location: "Main Gate"})

	require.Len(t, drain(watcher), 1)
	assert.Len(t, drain(admin), 1)

	registry.UnwatchVehicles(watcher)
	hub.Publish(event.LocationChanged{VehicleID: "v1", DriverID: "d1", Location: "Library"})
	assert.Empty(t, drain(watcher))
}

func TestRegistrationReachesAdminsOnly(t *testing.T) {
	hub, registry := newTestHub()

	admin := connect(registry, "a1", authdomain.RoleAdmin)
	require.NoError(t, registry.JoinAdminRoom(admin))
	driver := connect(registry, "d1", authdomain.RoleDriver)
	require.NoError(t, registry.JoinOwnRoom(driver))

	hub.Publish(event.EntityRegistered{Kind: event.EntityDriver, Payload: map[string]string{"id": "d2"}})

	got := drain(admin)
	require.Len(t, got, 1)
	assert.Equal(t, "new-driver-registered", got[0].Type)
	assert.Empty(t, drain(driver))
}

func TestOrderPreservedPerSession(t *testing.T) {
	hub, registry := newTestHub()

	student := connect(registry, "s1", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(student))

	for _, status := range []string{"accepted", "in_progress", "completed"} {
		hub.Publish(event.RideStatusChanged{RideID: "r1", StudentID: "s1", DriverID: "d1", Status: status})
	}

	got := drain(student)
	require.Len(t, got, 3)
	for i, want := range []string{"accepted", "in_progress", "completed"} {
		var payload struct {
			Status string `json:"status"`
		}
		raw, err := json.Marshal(got[i].Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, want, payload.Status)
	}
}

func TestBackloggedSessionIsDropped(t *testing.T) {
	hub, registry := newTestHub()

	slow := connect(registry, "s1", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(slow))

	// One more event than the buffer holds; nothing reads.
	for i := 0; i <= sendBuffer; i++ {
		hub.Publish(event.RideStatusChanged{RideID: "r1", StudentID: "s1", DriverID: "d1", Status: "accepted"})
	}

	assert.Equal(t, 0, registry.Connected())
	select {
	case <-slow.Done():
	default:
		t.Fatal("expected slow session to be closed")
	}
}

func TestDisconnectedSessionGetsNothing(t *testing.T) {
	hub, registry := newTestHub()

	s := connect(registry, "s1", authdomain.RoleStudent)
	require.NoError(t, registry.JoinOwnRoom(s))
	registry.Remove(s.ID)

	hub.Publish(event.RideStatusChanged{RideID: "r1", StudentID: "s1", DriverID: "d1", Status: "accepted"})
	assert.Equal(t, 0, registry.Connected())
}
