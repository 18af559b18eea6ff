package domain

import (
	"context"
	"time"

	"campus-rickshaw/internal/shared/apperrors"
)

// Role is the closed set of principal kinds. Every role-scoped decision in
// the system switches over this type rather than comparing raw strings.
type Role string

const (
	RoleStudent Role = "student"
	RoleDriver  Role = "driver"
	RoleAdmin   Role = "admin"
)

// ParseRole rejects anything outside the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleDriver, RoleAdmin:
		return Role(s), nil
	default:
		return "", apperrors.ErrMissingField
	}
}

// Principal is an authenticated identity attached to a request context after
// token verification.
type Principal struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
}

// Credential is what the role-scoped store hands back for a login attempt.
type Credential struct {
	PrincipalID  string
	DisplayName  string
	Email        string
	PasswordHash string
}

// StudentRegistration carries the self-registration form.
type StudentRegistration struct {
	RollNumber string `json:"roll_number"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone_number"`
	Password   string `json:"password"`
	Department string `json:"department"`
	Hostel     string `json:"hostel_name"`
}

// Student is the stored roster record.
type Student struct {
	ID              string    `json:"student_id"`
	RollNumber      string    `json:"roll_number"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone_number"`
	Department      string    `json:"department"`
	Hostel          string    `json:"hostel_name"`
	TotalRidesTaken int       `json:"total_rides_taken"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// CredentialStore looks principals up in the table belonging to their role.
type CredentialStore interface {
	FindByEmail(ctx context.Context, role Role, email string) (*Credential, error)
	CreateStudent(ctx context.Context, reg StudentRegistration, passwordHash string) (*Student, error)
}
