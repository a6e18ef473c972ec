package service

import (
	"errors"

	"github.com/chepyr/milestone-tracker/internal/db"
)

// ErrNotFound reports that the requested task or milestone does not exist.
var ErrNotFound = db.ErrNotFound

// ValidationError is returned for missing or malformed input, before the
// store is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
