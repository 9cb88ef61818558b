package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("creating deal: %w", NewReferenceError("lead", nil))

	assert.True(t, IsReference(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrCodeReference, GetErrorCode(err))
}

func TestGetErrorCode_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetErrorCode(errors.New("boom")))
}

func TestDomainError_Message(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: lead not found", NewNotFoundError("lead").Error())

	cause := errors.New("fk")
	err := NewReferenceError("property", cause)
	assert.Equal(t, "REFERENCE_ERROR: referenced property does not exist: fk", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{NewValidationError("x"), IsValidation},
		{NewUnauthorizedError(), IsUnauthorized},
		{NewForbiddenError("x"), IsForbidden},
		{NewInternalError(errors.New("x")), IsInternal},
		{NewConflictError("x"), IsConflict},
		{NewBadRequestError("x"), IsBadRequest},
	}
	for _, tc := range cases {
		assert.True(t, tc.pred(tc.err), tc.err.Error())
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("moving deal: %w", NewConflictError("cannot move deal from \"closed\" to \"offer\""))

	assert.ErrorIs(t, err, &DomainError{Code: ErrCodeConflict})
	assert.NotErrorIs(t, err, &DomainError{Code: ErrCodeNotFound})
	assert.False(t, IsInternal(errors.New("plain")))
}
