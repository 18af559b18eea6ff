package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/shared/apperrors"
)

// CredentialRepo is the role-scoped credential store. Each role lives in its
// own table with its own display-name column, mirroring the roster schema.
type CredentialRepo struct {
	db *pgxpool.Pool
}

func NewCredentialRepo(db *pgxpool.Pool) *CredentialRepo {
	return &CredentialRepo{db: db}
}

func (r *CredentialRepo) FindByEmail(ctx context.Context, role domain.Role, email string) (*domain.Credential, error) {
	var query string
	switch role {
	case domain.RoleStudent:
		query = `SELECT student_id, full_name, email, password_hash FROM students WHERE email = $1`
	case domain.RoleDriver:
		query = `SELECT driver_id, full_name, email, password_hash FROM drivers WHERE email = $1`
	case domain.RoleAdmin:
		query = `SELECT admin_id, username, email, password_hash FROM admins WHERE email = $1`
	default:
		return nil, apperrors.ErrNotFound
	}

	cred := &domain.Credential{}
	err := r.db.QueryRow(ctx, query, email).
		Scan(&cred.PrincipalID, &cred.DisplayName, &cred.Email, &cred.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s credential: %w", role, err)
	}
	return cred, nil
}

func (r *CredentialRepo) CreateStudent(ctx context.Context, reg domain.StudentRegistration, passwordHash string) (*domain.Student, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE email = $1)`, reg.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check student email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateKey
	}

	err = r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE roll_number = $1)`, reg.RollNumber).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check roll number: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateKey
	}

	student := &domain.Student{
		ID:         uuid.NewString(),
		RollNumber: reg.RollNumber,
		FullName:   reg.FullName,
		Email:      reg.Email,
		Phone:      reg.Phone,
		Department: reg.Department,
		Hostel:     reg.Hostel,
		IsActive:   true,
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO students
			(student_id, roll_number, full_name, email, phone_number, department,
			 hostel_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		RETURNING created_at
	`, student.ID, reg.RollNumber, reg.FullName, reg.Email, reg.Phone,
		reg.Department, reg.Hostel, passwordHash).Scan(&student.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	return student, nil
}
