package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an order kept changing under a transition
	// until the attempts ran out.
	ErrConflict     = errors.New("order is being updated by someone else, please retry")
	ErrUnauthorized = errors.New("invalid email or password")
	ErrForbidden    = errors.New("admin access required")
	ErrEmailInUse   = errors.New("email is already registered")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
