package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// ValidationError is a user-facing rejection. It matches ErrInvalidInput
// under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func Invalid(msg string) error {
	return &ValidationError{Message: msg}
}
