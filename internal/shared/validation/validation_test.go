package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campus-rickshaw/internal/shared/apperrors"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("asel@campus.edu"))
	assert.Error(t, ValidateEmail("asel@campus"))
	assert.Error(t, ValidateEmail("not an email"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidateRating(t *testing.T) {
	for r := 1; r <= 5; r++ {
		assert.NoError(t, ValidateRating(r))
	}
	assert.ErrorIs(t, ValidateRating(0), apperrors.ErrMissingField)
	assert.ErrorIs(t, ValidateRating(6), apperrors.ErrMissingField)
}

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired(map[string]string{"a": "x", "b": "y"}))

	err := ValidateRequired(map[string]string{"pickup_point": ""})
	assert.ErrorIs(t, err, apperrors.ErrMissingField)
	assert.Contains(t, err.Error(), "pickup_point")
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("6fa459ea-ee8a-3ca4-894e-db77e160355e"))
	assert.Error(t, ValidateUUID("not-a-uuid"))
}
