package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsWrapTheirSentinel(t *testing.T) {
	tests := []struct {
		err      *AppError
		sentinel error
		message  string
		field    string
	}{
		{NotFound("problem", "two-sum"), ErrNotFound, "Problem not found", ""},
		{ValidationFailed("code", "code is required"), ErrValidation, "code is required", "code"},
		{Conflict("test case", "3"), ErrConflict, "test case conflict with id 3", ""},
		{TooLarge("code", 100), ErrTooLarge, "code exceeds the maximum size of 100 bytes", "code"},
		{Unsupported("language", "cobol"), ErrUnsupported, `unsupported language: "cobol"`, "language"},
		{Unavailable("all runners are busy"), ErrUnavailable, "all runners are busy", ""},
	}
	sentinels := []error{ErrNotFound, ErrValidation, ErrConflict, ErrTooLarge, ErrUnsupported, ErrUnavailable}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			assert.Equal(t, tt.field, tt.err.Field)
			assert.Equal(t, tt.sentinel, tt.err.Unwrap())

			for _, s := range sentinels {
				assert.Equal(t, s == tt.sentinel, errors.Is(tt.err, s), "errors.Is(%q, %v)", tt.err, s)
			}
		})
	}
}

func TestWrappedAppErrorIsRecoverable(t *testing.T) {
	err := fmt.Errorf("loading problem: %w", NotFound("problem", "valid-anagram"))

	assert.ErrorIs(t, err, ErrNotFound)

	var appErr *AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, "valid-anagram", appErr.ID)
		assert.Equal(t, "Problem not found", appErr.Message)
	}
}

func TestNotFoundDoesNotEchoInput(t *testing.T) {
	err := NotFound("problem", "<script>alert(1)</script>")

	assert.NotContains(t, err.Error(), "script")
}

func TestValidationFieldPath(t *testing.T) {
	err := ValidationFailed("testCases[2].expectedOutput", "expected a boolean")

	assert.Equal(t, "testCases[2].expectedOutput", err.Field)
	assert.ErrorIs(t, err, ErrValidation)
}
