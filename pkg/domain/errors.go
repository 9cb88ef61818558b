// Package domain holds the error vocabulary shared by services and the HTTP
// layer. Services return *DomainError values; handlers map the Code to a
// status.
package domain

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeReference    = "REFERENCE_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeBadRequest   = "BAD_REQUEST"
)

// DomainError carries a code, a message safe to show to API callers, and an
// optional cause that is only logged.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches any DomainError with the same code, so
// errors.Is(err, &DomainError{Code: ErrCodeNotFound}) works across wrapping.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code && t.Message == ""
}

func newError(code, msg string, cause error) error {
	return &DomainError{Code: code, Message: msg, Err: cause}
}

// NewNotFoundError reports a missing resource, e.g. "lead not found"
func NewNotFoundError(resource string) error {
	return newError(ErrCodeNotFound, resource+" not found", nil)
}

func NewValidationError(msg string) error { return newError(ErrCodeValidation, msg, nil) }

// NewReferenceError reports a write pointing at a row that does not exist
func NewReferenceError(resource string, cause error) error {
	return newError(ErrCodeReference, "referenced "+resource+" does not exist", cause)
}

func NewUnauthorizedError() error {
	return newError(ErrCodeUnauthorized, "Authentication required", nil)
}

func NewForbiddenError(msg string) error  { return newError(ErrCodeForbidden, msg, nil) }
func NewConflictError(msg string) error   { return newError(ErrCodeConflict, msg, nil) }
func NewBadRequestError(msg string) error { return newError(ErrCodeBadRequest, msg, nil) }

// NewInternalError hides cause behind a generic message
func NewInternalError(cause error) error {
	return newError(ErrCodeInternal, "An internal error occurred", cause)
}

// GetErrorCode returns the code of the first DomainError in err's chain, or
// ErrCodeInternal when there is none.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}

func hasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

func IsNotFound(err error) bool     { return hasCode(err, ErrCodeNotFound) }
func IsValidation(err error) bool   { return hasCode(err, ErrCodeValidation) }
func IsReference(err error) bool    { return hasCode(err, ErrCodeReference) }
func IsUnauthorized(err error) bool { return hasCode(err, ErrCodeUnauthorized) }
func IsForbidden(err error) bool    { return hasCode(err, ErrCodeForbidden) }
func IsConflict(err error) bool     { return hasCode(err, ErrCodeConflict) }
func IsBadRequest(err error) bool   { return hasCode(err, ErrCodeBadRequest) }

// IsInternal reports an explicit internal DomainError, not any plain error
func IsInternal(err error) bool { return hasCode(err, ErrCodeInternal) }
