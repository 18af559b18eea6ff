package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-rickshaw/internal/ride/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/db"
)

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

func (r *RideRepo) ListAvailableVehicles(ctx context.Context) ([]domain.AvailableVehicle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT v.vehicle_id, v.vehicle_number, v.registration_number, v.model,
		       v.capacity, v.current_location, v.is_available, v.created_at,
		       d.driver_id, d.full_name, d.phone_number
		FROM vehicles v
		JOIN drivers d ON d.vehicle_id = v.vehicle_id
		WHERE v.is_available = TRUE AND d.is_available = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("list available vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []domain.AvailableVehicle{}
	for rows.Next() {
		var v domain.AvailableVehicle
		if err := rows.Scan(&v.ID, &v.Number, &v.RegistrationNumber, &v.Model,
			&v.Capacity, &v.CurrentLocation, &v.IsAvailable, &v.CreatedAt,
			&v.DriverID, &v.DriverName, &v.DriverPhone); err != nil {
			return nil, fmt.Errorf("scan available vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// DriverForVehicle resolves the driver currently assigned to a vehicle.
// A vehicle without a driver cannot be requested.
func (r *RideRepo) DriverForVehicle(ctx context.Context, vehicleID string) (*domain.Driver, error) {
	var d domain.Driver
	err := r.db.QueryRow(ctx, `
		SELECT driver_id, driver_code, full_name, email, phone_number,
		       license_number, vehicle_id, is_available, current_status
		FROM drivers
		WHERE vehicle_id = $1
	`, vehicleID).Scan(&d.ID, &d.Code, &d.FullName, &d.Email, &d.Phone,
		&d.LicenseNumber, &d.VehicleID, &d.IsAvailable, &d.CurrentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNoDriverAssigned
	}
	if err != nil {
		return nil, fmt.Errorf("resolve driver for vehicle: %w", err)
	}
	return &d, nil
}

func (r *RideRepo) CreateRide(ctx context.Context, ride *domain.Ride) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO rides
			(ride_id, student_id, vehicle_id, driver_id, pickup_point, dropoff_point, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, ride.ID, ride.StudentID, ride.VehicleID, ride.DriverID,
		ride.PickupPoint, ride.DropoffPoint, ride.Status).Scan(&ride.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}
	return nil
}

func (r *RideRepo) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	var ride domain.Ride
	err := r.db.QueryRow(ctx, `
		SELECT ride_id, student_id, vehicle_id, driver_id, pickup_point,
		       dropoff_point, status, fare, created_at
		FROM rides
		WHERE ride_id = $1
	`, rideID).Scan(&ride.ID, &ride.StudentID, &ride.VehicleID, &ride.DriverID,
		&ride.PickupPoint, &ride.DropoffPoint, &ride.Status, &ride.Fare, &ride.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	return &ride, nil
}

func (r *RideRepo) ListRidesByStudent(ctx context.Context, studentID string) ([]domain.Ride, error) {
	return r.listRides(ctx, `
		SELECT r.ride_id, r.student_id, r.vehicle_id, r.driver_id, r.pickup_point,
		       r.dropoff_point, r.status, r.fare, r.created_at,
		       '' AS student_name,
		       COALESCE(d.full_name, '') AS driver_name,
		       COALESCE(v.vehicle_number, '') AS vehicle_number
		FROM rides r
		LEFT JOIN drivers d ON d.driver_id = r.driver_id
		LEFT JOIN vehicles v ON v.vehicle_id = r.vehicle_id
		WHERE r.student_id = $1
		ORDER BY r.created_at DESC
	`, studentID)
}

func (r *RideRepo) ListRidesByDriver(ctx context.Context, driverID string) ([]domain.Ride, error) {
	return r.listRides(ctx, `
		SELECT r.ride_id, r.student_id, r.vehicle_id, r.driver_id, r.pickup_point,
		       r.dropoff_point, r.status, r.fare, r.created_at,
		       COALESCE(s.full_name, '') AS student_name,
		       '' AS driver_name,
		       COALESCE(v.vehicle_number, '') AS vehicle_number
		FROM rides r
		LEFT JOIN students s ON s.student_id = r.student_id
		LEFT JOIN vehicles v ON v.vehicle_id = r.vehicle_id
		WHERE r.driver_id = $1
		ORDER BY r.created_at DESC
	`, driverID)
}

func (r *RideRepo) ListAllRides(ctx context.Context) ([]domain.Ride, error) {
	return r.listRides(ctx, `
		SELECT r.ride_id, r.student_id, r.vehicle_id, r.driver_id, r.pickup_point,
		       r.dropoff_point, r.status, r.fare, r.created_at,
		       COALESCE(s.full_name, '') AS student_name,
		       COALESCE(d.full_name, '') AS driver_name,
		       COALESCE(v.vehicle_number, '') AS vehicle_number
		FROM rides r
		LEFT JOIN students s ON s.student_id = r.student_id
		LEFT JOIN drivers d ON d.driver_id = r.driver_id
		LEFT JOIN vehicles v ON v.vehicle_id = r.vehicle_id
		ORDER BY r.created_at DESC
	`)
}

func (r *RideRepo) listRides(ctx context.Context, query string, args ...interface{}) ([]domain.Ride, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	defer rows.Close()

	rides := []domain.Ride{}
	for rows.Next() {
		var ride domain.Ride
		if err := rows.Scan(&ride.ID, &ride.StudentID, &ride.VehicleID, &ride.DriverID,
			&ride.PickupPoint, &ride.DropoffPoint, &ride.Status, &ride.Fare,
			&ride.CreatedAt, &ride.StudentName, &ride.DriverName, &ride.VehicleNumber); err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// UpdateRideStatus is the single write of the state machine. The WHERE clause
// pins the expected current status, so of two racing transitions exactly one
// touches the row; the loser sees zero rows affected.
func (r *RideRepo) UpdateRideStatus(ctx context.Context, rideID string, from, to domain.Status, fare *float64) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE rides
		SET status = $1,
		    fare = COALESCE($2, fare)
		WHERE ride_id = $3 AND status = $4
	`, to, fare, rideID, from)
	if err != nil {
		return fmt.Errorf("update ride status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// SetDriverAvailability also forces current_status off "available" when the
// driver goes offline, keeping the two fields logically consistent.
func (r *RideRepo) SetDriverAvailability(ctx context.Context, driverID string, available bool) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE drivers
		SET is_available = $1,
		    current_status = CASE
		        WHEN $1 THEN 'available'
		        WHEN current_status = 'available' THEN 'offline'
		        ELSE current_status
		    END
		WHERE driver_id = $2
	`, available, driverID)
	if err != nil {
		return fmt.Errorf("set driver availability: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RideRepo) SetVehicleAvailability(ctx context.Context, vehicleID string, available bool) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE vehicles SET is_available = $1 WHERE vehicle_id = $2`, available, vehicleID)
	if err != nil {
		return fmt.Errorf("set vehicle availability: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RideRepo) UpdateVehicleLocation(ctx context.Context, vehicleID, location string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE vehicles SET current_location = $1 WHERE vehicle_id = $2`, location, vehicleID)
	if err != nil {
		return fmt.Errorf("update vehicle location: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// VehicleOwner returns the driver_id assigned to the vehicle, empty when the
// vehicle is unassigned.
func (r *RideRepo) VehicleOwner(ctx context.Context, vehicleID string) (string, error) {
	var driverID string
	err := r.db.QueryRow(ctx,
		`SELECT driver_id FROM drivers WHERE vehicle_id = $1`, vehicleID).Scan(&driverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve vehicle owner: %w", err)
	}
	return driverID, nil
}

func (r *RideRepo) AddFeedback(ctx context.Context, fb *domain.Feedback) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO feedback (feedback_id, ride_id, student_id, rating, comments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, fb.ID, fb.RideID, fb.StudentID, fb.Rating, fb.Comments).Scan(&fb.CreatedAt)
	if err != nil {
		// feedback.ride_id is UNIQUE; a second insert trips the constraint.
		if db.IsUniqueViolation(err) {
			return apperrors.ErrAlreadyRated
		}
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *RideRepo) HasFeedback(ctx context.Context, rideID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM feedback WHERE ride_id = $1)`, rideID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check feedback: %w", err)
	}
	return exists, nil
}
