package validation

import (
	"fmt"
	"regexp"

	"campus-rickshaw/internal/shared/apperrors"
)

var (
	uuidRegex  = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUUID validates that a string is a well-formed UUID.
func ValidateUUID(id string) error {
	if !uuidRegex.MatchString(id) {
		return fmt.Errorf("%w: invalid id format", apperrors.ErrMissingField)
	}
	return nil
}

// ValidateEmail checks the rough shape of an address; deliverability is the
// mail system's problem.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email", apperrors.ErrMissingField)
	}
	return nil
}

// ValidateRating validates a feedback rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrMissingField)
	}
	return nil
}

// ValidateRequired reports the first empty field by name.
func ValidateRequired(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s", apperrors.ErrMissingField, name)
		}
	}
	return nil
}

// ValidateNonNegativeInt validates counters like experience years.
func ValidateNonNegativeInt(value int, fieldName string) error {
	if value < 0 {
		return fmt.Errorf("%w: %s must not be negative", apperrors.ErrMissingField, fieldName)
	}
	return nil
}
