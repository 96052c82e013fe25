package errors

import (
	"errors"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrValidation         = errors.New("validation error")
	ErrCartNotFound       = errors.New("cart not found")
	ErrCartItemNotFound   = errors.New("item not found in cart")
	ErrNetworkFailure     = errors.New("network failure")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrVersionConflict    = errors.New("cart was modified concurrently")
)

// IsNotFound reports whether err means the cart or the item does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCartNotFound) || errors.Is(err, ErrCartItemNotFound)
}

// Kind names the error category of err for span attributes and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrValidation):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, ErrPersistenceFailure):
		return "persistence_failure"
	case errors.Is(err, ErrNetworkFailure):
		return "network_failure"
	default:
		return "unknown"
	}
}
