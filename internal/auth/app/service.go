package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/auth/jwt"
	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
	"campus-rickshaw/internal/shared/validation"
)

// AuthService validates credentials and issues bearer tokens. Every role goes
// through the same bcrypt check: the old "default password" shortcut for
// drivers and admins is gone, seed accounts carry real hashes.
type AuthService struct {
	store  domain.CredentialStore
	tokens *jwt.Manager
	bus    event.Bus
	logger *util.Logger
}

func NewAuthService(store domain.CredentialStore, tokens *jwt.Manager, bus event.Bus, logger *util.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, bus: bus, logger: logger}
}

// Login resolves the principal in the table belonging to role. Both "no such
// account" and "wrong password" surface as ErrInvalidCredential so the
// response never reveals whether an email is registered.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (string, *domain.Principal, error) {
	instance := "AuthService.Login"
	start := time.Now()

	cred, err := s.store.FindByEmail(ctx, role, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn(instance, fmt.Sprintf("login failed: unknown account [role=%s]", role))
			return "", nil, apperrors.ErrInvalidCredential
		}
		s.logger.Error(instance, fmt.Errorf("credential lookup: %w", err))
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		s.logger.Warn(instance, fmt.Sprintf("login failed: bad password [role=%s]", role))
		return "", nil, apperrors.ErrInvalidCredential
	}

	principal := &domain.Principal{
		ID:          cred.PrincipalID,
		Role:        role,
		DisplayName: cred.DisplayName,
		Email:       cred.Email,
	}

	token, err := s.tokens.Generate(*principal)
	if err != nil {
		s.logger.Error(instance, fmt.Errorf("sign token: %w", err))
		return "", nil, err
	}

	s.logger.OK(instance, fmt.Sprintf("login successful [id=%s, role=%s, duration_ms=%d]",
		principal.ID, role, time.Since(start).Milliseconds()))
	return token, principal, nil
}

// Verify is the gate every protected operation passes through.
func (s *AuthService) Verify(tokenString string) (*domain.Principal, error) {
	return s.tokens.Verify(tokenString)
}

// Register creates a student account. Drivers and admins are provisioned by
// an admin, never self-registered.
func (s *AuthService) Register(ctx context.Context, reg domain.StudentRegistration) (*domain.Student, error) {
	instance := "AuthService.Register"
	start := time.Now()

	if err := validation.ValidateRequired(map[string]string{
		"full_name":   reg.FullName,
		"password":    reg.Password,
		"roll_number": reg.RollNumber,
	}); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(reg.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error(instance, fmt.Errorf("hash password: %w", err))
		return nil, err
	}

	student, err := s.store.CreateStudent(ctx, reg, string(hash))
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			s.logger.Warn(instance, "registration rejected: duplicate email or roll number")
		} else {
			s.logger.Error(instance, fmt.Errorf("create student: %w", err))
		}
		return nil, err
	}

	s.bus.Publish(event.EntityRegistered{Kind: event.EntityStudent, Payload: student})

	s.logger.OK(instance, fmt.Sprintf("student registered [id=%s, duration_ms=%d]",
		student.ID, time.Since(start).Milliseconds()))
	return student, nil
}
