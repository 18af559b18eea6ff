package app

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/ride/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
)

// fakeRepo keeps everything in maps and mimics the conditional-write
// semantics of the pgx implementation.
type fakeRepo struct {
	rides         map[string]*domain.Ride
	drivers       map[string]*domain.Driver // keyed by vehicle_id
	feedback      map[string]*domain.Feedback
	driverAvail   map[string]bool
	vehicleOwners map[string]string
	locations     map[string]string

	// beforeStatusWrite runs between the service's read and its conditional
	// write, to stage a concurrent transition.
	beforeStatusWrite func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rides:         make(map[string]*domain.Ride),
		drivers:       make(map[string]*domain.Driver),
		feedback:      make(map[string]*domain.Feedback),
		driverAvail:   make(map[string]bool),
		vehicleOwners: make(map[string]string),
		locations:     make(map[string]string),
	}
}

func (f *fakeRepo) ListAvailableVehicles(context.Context) ([]domain.AvailableVehicle, error) {
	return nil, nil
}

func (f *fakeRepo) DriverForVehicle(_ context.Context, vehicleID string) (*domain.Driver, error) {
	d, ok := f.drivers[vehicleID]
	if !ok {
		return nil, apperrors.ErrNoDriverAssigned
	}
	return d, nil
}

func (f *fakeRepo) CreateRide(_ context.Context, ride *domain.Ride) error {
	f.rides[ride.ID] = ride
	return nil
}

func (f *fakeRepo) GetRide(_ context.Context, rideID string) (*domain.Ride, error) {
	ride, ok := f.rides[rideID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *ride
	return &copied, nil
}

func (f *fakeRepo) ListRidesByStudent(_ context.Context, studentID string) ([]domain.Ride, error) {
	var out []domain.Ride
	for _, r := range f.rides {
		if r.StudentID == studentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListRidesByDriver(_ context.Context, driverID string) ([]domain.Ride, error) {
	var out []domain.Ride
	for _, r := range f.rides {
		if r.DriverID == driverID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAllRides(context.Context) ([]domain.Ride, error) {
	var out []domain.Ride
	for _, r := range f.rides {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) UpdateRideStatus(_ context.Context, rideID string, from, to domain.Status, fare *float64) error {
	if f.beforeStatusWrite != nil {
		f.beforeStatusWrite()
	}
	ride, ok := f.rides[rideID]
	if !ok || ride.Status != from {
		return apperrors.ErrInvalidTransition
	}
	ride.Status = to
	if fare != nil {
		ride.Fare = fare
	}
	return nil
}

func (f *fakeRepo) SetDriverAvailability(_ context.Context, driverID string, available bool) error {
	f.driverAvail[driverID] = available
	return nil
}

func (f *fakeRepo) SetVehicleAvailability(context.Context, string, bool) error { return nil }

func (f *fakeRepo) UpdateVehicleLocation(_ context.Context, vehicleID, location string) error {
	f.locations[vehicleID] = location
	return nil
}

func (f *fakeRepo) VehicleOwner(_ context.Context, vehicleID string) (string, error) {
	owner, ok := f.vehicleOwners[vehicleID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return owner, nil
}

func (f *fakeRepo) AddFeedback(_ context.Context, fb *domain.Feedback) error {
	if _, ok := f.feedback[fb.RideID]; ok {
		return apperrors.ErrAlreadyRated
	}
	f.feedback[fb.RideID] = fb
	return nil
}

func (f *fakeRepo) HasFeedback(_ context.Context, rideID string) (bool, error) {
	_, ok := f.feedback[rideID]
	return ok, nil
}

type recordingBus struct {
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) { b.events = append(b.events, e) }

func newTestService() (*RideService, *fakeRepo, *recordingBus) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	return NewRideService(repo, bus, util.NewWithWriter(io.Discard)), repo, bus
}

var (
	student = &domain.Actor{ID: "s1", Role: authdomain.RoleStudent}
	driver  = &domain.Actor{ID: "d1", Role: authdomain.RoleDriver}
	admin   = &domain.Actor{ID: "a1", Role: authdomain.RoleAdmin}
)

func seedRide(repo *fakeRepo, status domain.Status) *domain.Ride {
	ride := &domain.Ride{
		ID: "r1", StudentID: "s1", VehicleID: "v1", DriverID: "d1",
		PickupPoint: "Main Gate", DropoffPoint: "Hostel B", Status: status,
	}
	repo.rides[ride.ID] = ride
	return ride
}

func TestCreateRide(t *testing.T) {
	svc, repo, bus := newTestService()
	repo.drivers["v1"] = &domain.Driver{ID: "d1", FullName: "Bakyt"}

	ride, err := svc.CreateRide(context.Background(), "s1", domain.RideRequest{
		VehicleID: "v1", PickupPoint: "Main Gate", DropoffPoint: "Library",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRequested, ride.Status)
	assert.Equal(t, "d1", ride.DriverID)

	require.Len(t, bus.events, 1)
	created, ok := bus.events[0].(event.RideCreated)
	require.True(t, ok)
	assert.Equal(t, ride.ID, created.RideID)
	assert.Equal(t, "d1", created.DriverID)
}

func TestCreateRideWithoutDriver(t *testing.T) {
	svc, _, bus := newTestService()

	_, err := svc.CreateRide(context.Background(), "s1", domain.RideRequest{
		VehicleID: "ghost", PickupPoint: "A", DropoffPoint: "B",
	})
	assert.ErrorIs(t, err, apperrors.ErrNoDriverAssigned)
	assert.Empty(t, bus.events)
}

func TestCreateRideMissingFields(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateRide(context.Background(), "s1", domain.RideRequest{VehicleID: "v1"})
	assert.ErrorIs(t, err, apperrors.ErrMissingField)
}

func TestUpdateRideStatusHappyPath(t *testing.T) {
	svc, repo, bus := newTestService()
	seedRide(repo, domain.StatusRequested)

	ride, err := svc.UpdateRideStatus(context.Background(), "r1", domain.StatusAccepted, nil, driver)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, ride.Status)

	ride, err = svc.UpdateRideStatus(context.Background(), "r1", domain.StatusInProgress, nil, driver)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, ride.Status)

	fare := 30.0
	ride, err = svc.UpdateRideStatus(context.Background(), "r1", domain.StatusCompleted, &fare, driver)
	require.NoError(t, err)
	require.NotNil(t, ride.Fare)
	assert.Equal(t, 30.0, *ride.Fare)

	require.Len(t, bus.events, 3)
	last, ok := bus.events[2].(event.RideStatusChanged)
	require.True(t, ok)
	assert.Equal(t, "completed", last.Status)
	require.NotNil(t, last.Fare)
}

func TestUpdateRideStatusSkipRefused(t *testing.T) {
	svc, repo, bus := newTestService()
	seedRide(repo, domain.StatusRequested)

	_, err := svc.UpdateRideStatus(context.Background(), "r1", domain.StatusCompleted, nil, driver)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Empty(t, bus.events)
}

func TestUpdateRideStatusRaceLoser(t *testing.T) {
	svc, repo, bus := newTestService()
	ride := seedRide(repo, domain.StatusRequested)

	// A concurrent cancel lands between this call's read and its write; the
	// conditional update must refuse rather than double-apply.
	repo.beforeStatusWrite = func() { ride.Status = domain.StatusCancelled }

	_, err := svc.UpdateRideStatus(context.Background(), "r1", domain.StatusAccepted, nil, driver)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Empty(t, bus.events)
}

func TestUpdateRideStatusWrongActor(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRide(repo, domain.StatusRequested)

	_, err := svc.UpdateRideStatus(context.Background(), "r1",
		domain.StatusAccepted, nil, &domain.Actor{ID: "d2", Role: authdomain.RoleDriver})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdateRideStatusUnknownRide(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.UpdateRideStatus(context.Background(), "missing", domain.StatusAccepted, nil, admin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListRidesFor(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRide(repo, domain.StatusRequested)
	repo.rides["r2"] = &domain.Ride{ID: "r2", StudentID: "s2", DriverID: "d2", Status: domain.StatusCompleted}

	mine, err := svc.ListRidesFor(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "r1", mine[0].ID)

	driving, err := svc.ListRidesFor(context.Background(), driver)
	require.NoError(t, err)
	require.Len(t, driving, 1)

	all, err := svc.ListRidesFor(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSetDriverAvailability(t *testing.T) {
	svc, repo, _ := newTestService()

	require.NoError(t, svc.SetDriverAvailability(context.Background(), "d1", false, driver))
	assert.False(t, repo.driverAvail["d1"])

	require.NoError(t, svc.SetDriverAvailability(context.Background(), "d1", true, admin))
	assert.True(t, repo.driverAvail["d1"])

	err := svc.SetDriverAvailability(context.Background(), "d2", false, driver)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdateVehicleLocation(t *testing.T) {
	svc, repo, bus := newTestService()
	repo.vehicleOwners["v1"] = "d1"

	require.NoError(t, svc.UpdateVehicleLocation(context.Background(), "v1", "Block C", driver))
	assert.Equal(t, "Block C", repo.locations["v1"])

	require.Len(t, bus.events, 1)
	loc, ok := bus.events[0].(event.LocationChanged)
	require.True(t, ok)
	assert.Equal(t, "Block C", loc.Location)

	// Not the owning driver.
	err := svc.UpdateVehicleLocation(context.Background(), "v1", "x",
		&domain.Actor{ID: "d2", Role: authdomain.RoleDriver})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Students never report locations.
	err = svc.UpdateVehicleLocation(context.Background(), "v1", "x", student)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAddFeedback(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRide(repo, domain.StatusCompleted)

	fb, err := svc.AddFeedback(context.Background(), "r1", 5, "smooth ride", student)
	require.NoError(t, err)
	assert.Equal(t, 5, fb.Rating)

	_, err = svc.AddFeedback(context.Background(), "r1", 3, "", student)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRated)
}

func TestAddFeedbackGuards(t *testing.T) {
	svc, repo, _ := newTestService()
	seedRide(repo, domain.StatusCompleted)

	_, err := svc.AddFeedback(context.Background(), "r1", 6, "", student)
	assert.ErrorIs(t, err, apperrors.ErrMissingField)

	_, err = svc.AddFeedback(context.Background(), "r1", 4, "",
		&domain.Actor{ID: "s2", Role: authdomain.RoleStudent})
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)
}
