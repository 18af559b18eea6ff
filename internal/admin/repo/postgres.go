package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/ride/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/db"
)

type AdminRepo struct {
	db *pgxpool.Pool
}

func NewAdminRepo(db *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{db: db}
}

func (r *AdminRepo) ListStudents(ctx context.Context) ([]authdomain.Student, error) {
	rows, err := r.db.Query(ctx, `
		SELECT student_id, roll_number, full_name, email, phone_number,
		       department, hostel_name, total_rides_taken, is_active, created_at
		FROM students
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := []authdomain.Student{}
	for rows.Next() {
		var s authdomain.Student
		if err := rows.Scan(&s.ID, &s.RollNumber, &s.FullName, &s.Email, &s.Phone,
			&s.Department, &s.Hostel, &s.TotalRidesTaken, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *AdminRepo) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	rows, err := r.db.Query(ctx, `
		SELECT driver_id, driver_code, full_name, email, phone_number,
		       license_number, vehicle_id, experience_years, is_available,
		       current_status, total_rides_completed, average_rating, joined_date
		FROM drivers
		ORDER BY joined_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	drivers := []domain.Driver{}
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.Code, &d.FullName, &d.Email, &d.Phone,
			&d.LicenseNumber, &d.VehicleID, &d.ExperienceYears, &d.IsAvailable,
			&d.CurrentStatus, &d.RidesCompleted, &d.AverageRating, &d.JoinedDate); err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *AdminRepo) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT vehicle_id, vehicle_number, registration_number, model,
		       capacity, current_location, is_available, created_at
		FROM vehicles
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []domain.Vehicle{}
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Number, &v.RegistrationNumber, &v.Model,
			&v.Capacity, &v.CurrentLocation, &v.IsAvailable, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// CreateDriver inserts a roster record with a generated sequential driver
// code. Email and license number are unique per table; the index backstops
// the pre-checks under concurrency.
func (r *AdminRepo) CreateDriver(ctx context.Context, d *domain.Driver, passwordHash string) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM drivers WHERE email = $1 OR license_number = $2)`,
		d.Email, d.LicenseNumber).Scan(&exists); err != nil {
		return fmt.Errorf("check driver uniqueness: %w", err)
	}
	if exists {
		return apperrors.ErrDuplicateKey
	}

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM drivers`).Scan(&count); err != nil {
		return fmt.Errorf("count drivers: %w", err)
	}
	d.ID = uuid.NewString()
	d.Code = fmt.Sprintf("D%d", count+1)

	err := r.db.QueryRow(ctx, `
		INSERT INTO drivers
			(driver_id, driver_code, full_name, email, phone_number, license_number,
			 password_hash, vehicle_id, experience_years, is_available, current_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, 'available')
		RETURNING joined_date
	`, d.ID, d.Code, d.FullName, d.Email, d.Phone, d.LicenseNumber,
		passwordHash, d.VehicleID, d.ExperienceYears).Scan(&d.JoinedDate)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperrors.ErrDuplicateKey
		}
		return fmt.Errorf("insert driver: %w", err)
	}
	d.IsAvailable = true
	d.CurrentStatus = "available"
	return nil
}

func (r *AdminRepo) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vehicles WHERE vehicle_number = $1 OR registration_number = $2)`,
		v.Number, v.RegistrationNumber).Scan(&exists); err != nil {
		return fmt.Errorf("check vehicle uniqueness: %w", err)
	}
	if exists {
		return apperrors.ErrDuplicateKey
	}

	v.ID = uuid.NewString()
	err := r.db.QueryRow(ctx, `
		INSERT INTO vehicles
			(vehicle_id, vehicle_number, registration_number, model, capacity,
			 current_location, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING created_at
	`, v.ID, v.Number, v.RegistrationNumber, v.Model, v.Capacity,
		v.CurrentLocation).Scan(&v.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperrors.ErrDuplicateKey
		}
		return fmt.Errorf("insert vehicle: %w", err)
	}
	v.IsAvailable = true
	return nil
}

// Deletes never cascade into rides: historical ride rows keep their
// student/driver/vehicle ids even after the roster record is gone.

func (r *AdminRepo) DeleteStudent(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM students WHERE student_id = $1`, id)
}

func (r *AdminRepo) DeleteDriver(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM drivers WHERE driver_id = $1`, id)
}

func (r *AdminRepo) DeleteVehicle(ctx context.Context, id string) error {
	return r.deleteByID(ctx, `DELETE FROM vehicles WHERE vehicle_id = $1`, id)
}

func (r *AdminRepo) deleteByID(ctx context.Context, query, id string) error {
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
