package domain

import (
	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/shared/apperrors"
)

type Status string

const (
	StatusRequested  Status = "requested"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the whole lifecycle. rejected, cancelled and completed are
// terminal: they appear in no left-hand side.
var transitions = map[Status][]Status{
	StatusRequested:  {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusRequested, StatusAccepted, StatusRejected,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", apperrors.ErrMissingField
	}
}

func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransition reports whether from -> to appears in the lifecycle table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AuthorizeTransition decides who may apply from -> to on a ride:
//   - the ride's assigned driver or an admin, for any legal transition;
//   - the ride's student, only to cancel their own still-requested ride.
//
// It returns ErrInvalidTransition for moves outside the table and
// ErrForbidden for legal moves by the wrong actor. Fare may only accompany
// in_progress -> completed.
func AuthorizeTransition(ride *Ride, from, to Status, fare *float64, actor *Actor) error {
	if !CanTransition(from, to) {
		return apperrors.ErrInvalidTransition
	}
	if fare != nil && !(from == StatusInProgress && to == StatusCompleted) {
		return apperrors.ErrInvalidTransition
	}

	switch actor.Role {
	case authdomain.RoleAdmin:
		return nil
	case authdomain.RoleDriver:
		if ride.DriverID != actor.ID {
			return apperrors.ErrForbidden
		}
		return nil
	case authdomain.RoleStudent:
		if ride.StudentID == actor.ID && from == StatusRequested && to == StatusCancelled {
			return nil
		}
		return apperrors.ErrForbidden
	default:
		return apperrors.ErrForbidden
	}
}
