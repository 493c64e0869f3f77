package domain

import "errors"

var (
	ErrNotFound            = errors.New("record not found")
	ErrConflict            = errors.New("record was modified concurrently")
	ErrDuplicate           = errors.New("record already exists")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidEntity       = errors.New("unknown entity")
	ErrInvalidStatus       = errors.New("status is not valid for this entity")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrNoteRequired        = errors.New("a note is required for this status")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

// ValidationError carries a field-specific message and matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
