package errors

import "fmt"

// ErrorCode represents a Buriosa error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrConflict        ErrorCode = "CONFLICT"         // 409
	ErrRegistryInvalid ErrorCode = "REGISTRY_INVALID" // 422
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// BuriosaError represents a structured error with code, status, and details.
type BuriosaError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BuriosaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BuriosaError {
	return &BuriosaError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing repository, commit or release.
func NewNotFound(kind, identifier string) *BuriosaError {
	return &BuriosaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *BuriosaError {
	return &BuriosaError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewRegistryInvalid creates a 422 error when one or more metadata files fail validation.
func NewRegistryInvalid(invalid []string) *BuriosaError {
	return &BuriosaError{
		Code:    ErrRegistryInvalid,
		Status:  422,
		Message: fmt.Sprintf("%d metadata file(s) failed validation: %v", len(invalid), invalid),
		Details: map[string]any{"invalid": invalid},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BuriosaError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BuriosaError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a BuriosaError with the given code.
func Is(err error, code ErrorCode) bool {
	if bErr, ok := err.(*BuriosaError); ok {
		return bErr.Code == code
	}
	return false
}
