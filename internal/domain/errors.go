package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both records that do not exist and records owned by
// someone else. Collapsing the two keeps ownership unguessable.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write, e.g. a
// duplicate schema name for the same owner.
var ErrConflict = errors.New("conflict")

// ValidationError marks a request that is malformed as a whole: bad JSON
// shape, a missing required CSV column, an invalid field value. It is always
// raised before any row of a batch is processed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
