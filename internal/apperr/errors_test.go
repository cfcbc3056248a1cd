package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeIntegrity, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, MetadataFor(tt.code).HTTPStatus, string(tt.code))
	}
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("nope").HTTPStatus)
}

func TestAsFindsWrappedError(t *testing.T) {
	base := Conflict("stale version")
	wrapped := fmt.Errorf("updating assignment: %w", base)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeConflict, got.Code())
	assert.True(t, Is(wrapped, CodeConflict))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeInternal, cause, "saving form")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestValidationAggregatesAllViolations(t *testing.T) {
	var errs error
	errs = multierr.Append(errs, Field("returnDate", "is required"))
	errs = multierr.Append(errs, Field("assignmentDate", "must not be in the future"))

	err := Validation(errs)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))

	fields := Fields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "returnDate", fields[0].Field)
	assert.Equal(t, "assignmentDate", fields[1].Field)
}

func TestValidationNil(t *testing.T) {
	assert.NoError(t, Validation(nil))
}
