package domain

import (
	"context"
	"time"

	authdomain "campus-rickshaw/internal/auth/domain"
)

// Vehicle is a tracked e-rickshaw unit.
type Vehicle struct {
	ID                 string    `json:"vehicle_id"`
	Number             string    `json:"vehicle_number"`
	RegistrationNumber string    `json:"registration_number"`
	Model              string    `json:"model"`
	Capacity           int       `json:"capacity"`
	CurrentLocation    string    `json:"current_location"`
	IsAvailable        bool      `json:"is_available"`
	CreatedAt          time.Time `json:"created_at"`
}

// Driver owns at most one vehicle at a time.
type Driver struct {
	ID              string    `json:"driver_id"`
	Code            string    `json:"driver_code"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone_number"`
	LicenseNumber   string    `json:"license_number"`
	VehicleID       *string   `json:"vehicle_id,omitempty"`
	ExperienceYears int       `json:"experience_years"`
	IsAvailable     bool      `json:"is_available"`
	CurrentStatus   string    `json:"current_status"`
	RidesCompleted  int       `json:"total_rides_completed"`
	AverageRating   float64   `json:"average_rating"`
	JoinedDate      time.Time `json:"joined_date"`
}

// AvailableVehicle is the student-facing listing row: a vehicle joined with
// its currently assigned driver, both available.
type AvailableVehicle struct {
	Vehicle
	DriverID    string `json:"driver_id"`
	DriverName  string `json:"driver_name"`
	DriverPhone string `json:"driver_phone"`
}

// Ride is a point-in-time snapshot of student, driver and vehicle: driver_id
// is resolved from the vehicle at creation and never changes, even if the
// vehicle is reassigned or the driver is later deleted from the roster.
type Ride struct {
	ID           string    `json:"ride_id"`
	StudentID    string    `json:"student_id"`
	VehicleID    string    `json:"vehicle_id"`
	DriverID     string    `json:"driver_id"`
	PickupPoint  string    `json:"pickup_point"`
	DropoffPoint string    `json:"dropoff_point"`
	Status       Status    `json:"status"`
	Fare         *float64  `json:"fare,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Display-only join columns, populated by the scoped listings.
	StudentName   string `json:"student_name,omitempty"`
	DriverName    string `json:"driver_name,omitempty"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
}

// Feedback is written once per completed ride and immutable afterward.
type Feedback struct {
	ID        string    `json:"feedback_id"`
	RideID    string    `json:"ride_id"`
	StudentID string    `json:"student_id"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

type RideRequest struct {
	VehicleID    string `json:"vehicle_id"`
	PickupPoint  string `json:"pickup_point"`
	DropoffPoint string `json:"dropoff_point"`
}

// Repository is the storage contract of the ride core. The pgx implementation
// lives in ride/repo; tests provide fakes.
type Repository interface {
	ListAvailableVehicles(ctx context.Context) ([]AvailableVehicle, error)
	DriverForVehicle(ctx context.Context, vehicleID string) (*Driver, error)
	CreateRide(ctx context.Context, ride *Ride) error
	GetRide(ctx context.Context, rideID string) (*Ride, error)
	ListRidesByStudent(ctx context.Context, studentID string) ([]Ride, error)
	ListRidesByDriver(ctx context.Context, driverID string) ([]Ride, error)
	ListAllRides(ctx context.Context) ([]Ride, error)

	// UpdateRideStatus persists a transition with a single conditional
	// write: the row is touched only while its status still equals from.
	// A lost race reports apperrors.ErrInvalidTransition.
	UpdateRideStatus(ctx context.Context, rideID string, from, to Status, fare *float64) error

	SetDriverAvailability(ctx context.Context, driverID string, available bool) error
	SetVehicleAvailability(ctx context.Context, vehicleID string, available bool) error
	UpdateVehicleLocation(ctx context.Context, vehicleID, location string) error
	VehicleOwner(ctx context.Context, vehicleID string) (string, error)

	AddFeedback(ctx context.Context, fb *Feedback) error
	HasFeedback(ctx context.Context, rideID string) (bool, error)
}

// Actor is the identity attempting a ride operation.
type Actor = authdomain.Principal
