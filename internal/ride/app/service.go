package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/ride/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
	"campus-rickshaw/internal/shared/validation"
)

// RideService drives the ride lifecycle. The repository is the single source
// of truth; every event published here is a denormalized display copy.
type RideService struct {
	repo   domain.Repository
	bus    event.Bus
	logger *util.Logger
}

func NewRideService(repo domain.Repository, bus event.Bus, logger *util.Logger) *RideService {
	return &RideService{repo: repo, bus: bus, logger: logger}
}

func (s *RideService) ListAvailableVehicles(ctx context.Context) ([]domain.AvailableVehicle, error) {
	return s.repo.ListAvailableVehicles(ctx)
}

// CreateRide resolves the vehicle's current driver and snapshots all three
// parties into the new ride.
func (s *RideService) CreateRide(ctx context.Context, studentID string, req domain.RideRequest) (*domain.Ride, error) {
	instance := "RideService.CreateRide"
	start := time.Now()

	if err := validation.ValidateRequired(map[string]string{
		"vehicle_id":    req.VehicleID,
		"pickup_point":  req.PickupPoint,
		"dropoff_point": req.DropoffPoint,
	}); err != nil {
		return nil, err
	}

	driver, err := s.repo.DriverForVehicle(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoDriverAssigned) {
			s.logger.Warn(instance, "vehicle has no assigned driver: "+req.VehicleID)
		} else {
			s.logger.Error(instance, err)
		}
		return nil, err
	}

	ride := &domain.Ride{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		VehicleID:    req.VehicleID,
		DriverID:     driver.ID,
		PickupPoint:  req.PickupPoint,
		DropoffPoint: req.DropoffPoint,
		Status:       domain.StatusRequested,
	}
	if err := s.repo.CreateRide(ctx, ride); err != nil {
		s.logger.Error(instance, err)
		return nil, err
	}

	s.bus.Publish(event.RideCreated{
		RideID:    ride.ID,
		StudentID: ride.StudentID,
		DriverID:  ride.DriverID,
		VehicleID: ride.VehicleID,
		Pickup:    ride.PickupPoint,
		Dropoff:   ride.DropoffPoint,
		Status:    string(ride.Status),
	})

	s.logger.OK(instance, fmt.Sprintf("ride created [ride_id=%s, driver_id=%s, duration_ms=%d]",
		ride.ID, ride.DriverID, time.Since(start).Milliseconds()))
	return ride, nil
}

// ListRidesFor scopes the listing to what the caller may see.
func (s *RideService) ListRidesFor(ctx context.Context, actor *domain.Actor) ([]domain.Ride, error) {
	switch actor.Role {
	case authdomain.RoleStudent:
		return s.repo.ListRidesByStudent(ctx, actor.ID)
	case authdomain.RoleDriver:
		return s.repo.ListRidesByDriver(ctx, actor.ID)
	case authdomain.RoleAdmin:
		return s.repo.ListAllRides(ctx)
	default:
		return nil, apperrors.ErrForbidden
	}
}

// UpdateRideStatus applies one lifecycle transition. Legality and actor
// checks run against the freshly read ride; the write itself is conditional
// on the observed status, so a racing transition cannot be double-applied.
func (s *RideService) UpdateRideStatus(ctx context.Context, rideID string, to domain.Status, fare *float64, actor *domain.Actor) (*domain.Ride, error) {
	instance := "RideService.UpdateRideStatus"
	start := time.Now()

	ride, err := s.repo.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	from := ride.Status

	if err := domain.AuthorizeTransition(ride, from, to, fare, actor); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("transition rejected [ride_id=%s, %s -> %s, actor=%s]",
			rideID, from, to, actor.Role))
		return nil, err
	}

	if err := s.repo.UpdateRideStatus(ctx, rideID, from, to, fare); err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			s.logger.Warn(instance, fmt.Sprintf("lost transition race [ride_id=%s, expected=%s]", rideID, from))
		} else {
			s.logger.Error(instance, err)
		}
		return nil, err
	}

	ride.Status = to
	if fare != nil {
		ride.Fare = fare
	}

	s.bus.Publish(event.RideStatusChanged{
		RideID:    ride.ID,
		StudentID: ride.StudentID,
		DriverID:  ride.DriverID,
		Status:    string(to),
		Fare:      ride.Fare,
	})

	s.logger.OK(instance, fmt.Sprintf("ride %s: %s -> %s [duration_ms=%d]",
		rideID, from, to, time.Since(start).Milliseconds()))
	return ride, nil
}

// SetDriverAvailability flips the caller's own availability flag; admins may
// flip anyone's.
func (s *RideService) SetDriverAvailability(ctx context.Context, driverID string, available bool, actor *domain.Actor) error {
	if actor.Role != authdomain.RoleAdmin && actor.ID != driverID {
		return apperrors.ErrForbidden
	}
	return s.repo.SetDriverAvailability(ctx, driverID, available)
}

func (s *RideService) SetVehicleAvailability(ctx context.Context, vehicleID string, available bool, actor *domain.Actor) error {
	if err := s.authorizeVehicleMutation(ctx, vehicleID, actor); err != nil {
		return err
	}
	return s.repo.SetVehicleAvailability(ctx, vehicleID, available)
}

// UpdateVehicleLocation persists the position, then mirrors it to everyone
// watching vehicle availability. The event payload is display-only.
func (s *RideService) UpdateVehicleLocation(ctx context.Context, vehicleID, location string, actor *domain.Actor) error {
	instance := "RideService.UpdateVehicleLocation"

	if err := s.authorizeVehicleMutation(ctx, vehicleID, actor); err != nil {
		return err
	}
	if err := s.repo.UpdateVehicleLocation(ctx, vehicleID, location); err != nil {
		s.logger.Error(instance, err)
		return err
	}

	s.bus.Publish(event.LocationChanged{
		VehicleID: vehicleID,
		DriverID:  actor.ID,
		Location:  location,
	})
	return nil
}

// authorizeVehicleMutation admits the owning driver or any admin.
func (s *RideService) authorizeVehicleMutation(ctx context.Context, vehicleID string, actor *domain.Actor) error {
	if actor.Role == authdomain.RoleAdmin {
		return nil
	}
	if actor.Role != authdomain.RoleDriver {
		return apperrors.ErrForbidden
	}
	owner, err := s.repo.VehicleOwner(ctx, vehicleID)
	if err != nil {
		return err
	}
	if owner != actor.ID {
		return apperrors.ErrForbidden
	}
	return nil
}

// AddFeedback records the student's one-shot rating of their own ride.
func (s *RideService) AddFeedback(ctx context.Context, rideID string, rating int, comments string, actor *domain.Actor) (*domain.Feedback, error) {
	instance := "RideService.AddFeedback"

	if err := validation.ValidateRating(rating); err != nil {
		return nil, err
	}

	ride, err := s.repo.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.StudentID != actor.ID {
		s.logger.Warn(instance, fmt.Sprintf("feedback by non-owner [ride_id=%s, actor=%s]", rideID, actor.ID))
		return nil, apperrors.ErrNotOwner
	}

	rated, err := s.repo.HasFeedback(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if rated {
		return nil, apperrors.ErrAlreadyRated
	}

	fb := &domain.Feedback{
		ID:        uuid.NewString(),
		RideID:    rideID,
		StudentID: actor.ID,
		Rating:    rating,
		Comments:  comments,
	}
	if err := s.repo.AddFeedback(ctx, fb); err != nil {
		// the unique index backstops the read check under concurrency
		if !errors.Is(err, apperrors.ErrAlreadyRated) {
			s.logger.Error(instance, err)
		}
		return nil, err
	}

	s.logger.OK(instance, "feedback recorded for ride "+rideID)
	return fb, nil
}
