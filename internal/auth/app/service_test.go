package app

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/auth/jwt"
	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
)

type fakeStore struct {
	creds    map[string]*domain.Credential // key: role + "/" + email
	students map[string]bool               // taken emails and roll numbers
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		creds:    make(map[string]*domain.Credential),
		students: make(map[string]bool),
	}
}

func (f *fakeStore) add(role domain.Role, email, password string) *domain.Credential {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	cred := &domain.Credential{
		PrincipalID:  "id-" + email,
		DisplayName:  "Test " + email,
		Email:        email,
		PasswordHash: string(hash),
	}
	f.creds[string(role)+"/"+email] = cred
	return cred
}

func (f *fakeStore) FindByEmail(_ context.Context, role domain.Role, email string) (*domain.Credential, error) {
	cred, ok := f.creds[string(role)+"/"+email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cred, nil
}

func (f *fakeStore) CreateStudent(_ context.Context, reg domain.StudentRegistration, passwordHash string) (*domain.Student, error) {
	if f.students[reg.Email] || f.students[reg.RollNumber] {
		return nil, apperrors.ErrDuplicateKey
	}
	f.students[reg.Email] = true
	f.students[reg.RollNumber] = true
	return &domain.Student{
		ID:         "stu-1",
		RollNumber: reg.RollNumber,
		FullName:   reg.FullName,
		Email:      reg.Email,
		IsActive:   true,
	}, nil
}

type recordingBus struct {
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) { b.events = append(b.events, e) }

func newTestService(store domain.CredentialStore) (*AuthService, *recordingBus) {
	bus := &recordingBus{}
	logger := util.NewWithWriter(io.Discard)
	return NewAuthService(store, jwt.NewManager("test-secret"), bus, logger), bus
}

func TestLoginSuccess(t *testing.T) {
	store := newFakeStore()
	store.add(domain.RoleDriver, "d@campus.edu", "hunter2")
	svc, _ := newTestService(store)

	token, principal, err := svc.Login(context.Background(), "d@campus.edu", "hunter2", domain.RoleDriver)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.RoleDriver, principal.Role)

	// The issued token must verify back to the same principal.
	verified, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, verified.ID)
}

func TestLoginHidesAccountExistence(t *testing.T) {
	store := newFakeStore()
	store.add(domain.RoleStudent, "s@campus.edu", "hunter2")
	svc, _ := newTestService(store)

	_, _, unknownErr := svc.Login(context.Background(), "nobody@campus.edu", "hunter2", domain.RoleStudent)
	_, _, badPassErr := svc.Login(context.Background(), "s@campus.edu", "wrong", domain.RoleStudent)

	assert.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredential)
	assert.ErrorIs(t, badPassErr, apperrors.ErrInvalidCredential)
}

func TestLoginIsRoleScoped(t *testing.T) {
	store := newFakeStore()
	store.add(domain.RoleStudent, "s@campus.edu", "hunter2")
	svc, _ := newTestService(store)

	// Same email, wrong role table: treated as unknown account.
	_, _, err := svc.Login(context.Background(), "s@campus.edu", "hunter2", domain.RoleDriver)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestRegisterPublishesEvent(t *testing.T) {
	svc, bus := newTestService(newFakeStore())

	student, err := svc.Register(context.Background(), domain.StudentRegistration{
		RollNumber: "21BCS001",
		FullName:   "Asel N",
		Email:      "asel@campus.edu",
		Password:   "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "21BCS001", student.RollNumber)

	require.Len(t, bus.events, 1)
	reg, ok := bus.events[0].(event.EntityRegistered)
	require.True(t, ok)
	assert.Equal(t, event.EntityStudent, reg.Kind)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	store := newFakeStore()
	svc, bus := newTestService(store)

	reg := domain.StudentRegistration{
		RollNumber: "21BCS001",
		FullName:   "Asel N",
		Email:      "asel@campus.edu",
		Password:   "hunter2",
	}
	_, err := svc.Register(context.Background(), reg)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), reg)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
	assert.Len(t, bus.events, 1)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, bus := newTestService(newFakeStore())

	_, err := svc.Register(context.Background(), domain.StudentRegistration{
		RollNumber: "21BCS001",
		FullName:   "Asel N",
		Email:      "not-an-email",
		Password:   "hunter2",
	})
	assert.ErrorIs(t, err, apperrors.ErrMissingField)

	_, err = svc.Register(context.Background(), domain.StudentRegistration{
		RollNumber: "21BCS001",
		Email:      "asel@campus.edu",
		Password:   "hunter2",
	})
	assert.ErrorIs(t, err, apperrors.ErrMissingField)
	assert.Empty(t, bus.events)
}
