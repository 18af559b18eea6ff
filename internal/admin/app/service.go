package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/ride/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
	"campus-rickshaw/internal/shared/validation"
)

// Repository is the admin-side roster contract.
type Repository interface {
	ListStudents(ctx context.Context) ([]authdomain.Student, error)
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	CreateDriver(ctx context.Context, d *domain.Driver, passwordHash string) error
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
	DeleteStudent(ctx context.Context, id string) error
	DeleteDriver(ctx context.Context, id string) error
	DeleteVehicle(ctx context.Context, id string) error
}

// AdminService manages the campus roster: drivers, vehicles and student
// removal. Ride history survives every deletion.
type AdminService struct {
	repo   Repository
	bus    event.Bus
	logger *util.Logger
}

func NewAdminService(repo Repository, bus event.Bus, logger *util.Logger) *AdminService {
	return &AdminService{repo: repo, bus: bus, logger: logger}
}

func (s *AdminService) ListStudents(ctx context.Context) ([]authdomain.Student, error) {
	return s.repo.ListStudents(ctx)
}

func (s *AdminService) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	return s.repo.ListDrivers(ctx)
}

func (s *AdminService) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.repo.ListVehicles(ctx)
}

type NewDriver struct {
	FullName        string  `json:"full_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone_number"`
	LicenseNumber   string  `json:"license_number"`
	Password        string  `json:"password"`
	VehicleID       *string `json:"vehicle_id,omitempty"`
	ExperienceYears int     `json:"experience_years"`
}

func (s *AdminService) CreateDriver(ctx context.Context, in NewDriver) (*domain.Driver, error) {
	instance := "AdminService.CreateDriver"
	start := time.Now()

	if err := validation.ValidateRequired(map[string]string{
		"full_name":      in.FullName,
		"license_number": in.LicenseNumber,
		"password":       in.Password,
	}); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeInt(in.ExperienceYears, "experience_years"); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error(instance, fmt.Errorf("hash password: %w", err))
		return nil, err
	}

	driver := &domain.Driver{
		FullName:        in.FullName,
		Email:           in.Email,
		Phone:           in.Phone,
		LicenseNumber:   in.LicenseNumber,
		VehicleID:       in.VehicleID,
		ExperienceYears: in.ExperienceYears,
	}
	if err := s.repo.CreateDriver(ctx, driver, string(hash)); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			s.logger.Warn(instance, "duplicate driver email or license number")
		} else {
			s.logger.Error(instance, err)
		}
		return nil, err
	}

	s.bus.Publish(event.EntityRegistered{Kind: event.EntityDriver, Payload: driver})

	s.logger.OK(instance, fmt.Sprintf("driver created [id=%s, code=%s, duration_ms=%d]",
		driver.ID, driver.Code, time.Since(start).Milliseconds()))
	return driver, nil
}

type NewVehicle struct {
	Number             string `json:"vehicle_number"`
	RegistrationNumber string `json:"registration_number"`
	Model              string `json:"model"`
	Capacity           int    `json:"capacity"`
	CurrentLocation    string `json:"current_location"`
}

func (s *AdminService) CreateVehicle(ctx context.Context, in NewVehicle) (*domain.Vehicle, error) {
	instance := "AdminService.CreateVehicle"

	if err := validation.ValidateRequired(map[string]string{
		"number":              in.Number,
		"registration_number": in.RegistrationNumber,
	}); err != nil {
		return nil, err
	}

	vehicle := &domain.Vehicle{
		Number:             in.Number,
		RegistrationNumber: in.RegistrationNumber,
		Model:              in.Model,
		Capacity:           in.Capacity,
		CurrentLocation:    in.CurrentLocation,
	}
	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			s.logger.Warn(instance, "duplicate vehicle or registration number")
		} else {
			s.logger.Error(instance, err)
		}
		return nil, err
	}

	s.bus.Publish(event.EntityRegistered{Kind: event.EntityVehicle, Payload: vehicle})

	s.logger.OK(instance, "vehicle created: "+vehicle.ID)
	return vehicle, nil
}

func (s *AdminService) DeleteStudent(ctx context.Context, id string) error {
	return s.repo.DeleteStudent(ctx, id)
}

func (s *AdminService) DeleteDriver(ctx context.Context, id string) error {
	return s.repo.DeleteDriver(ctx, id)
}

func (s *AdminService) DeleteVehicle(ctx context.Context, id string) error {
	return s.repo.DeleteVehicle(ctx, id)
}
