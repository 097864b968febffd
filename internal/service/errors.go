package service

import "errors"

// ErrProductNotFound is returned when the referenced product id has no row.
var ErrProductNotFound = errors.New("product not found")

// ValidationError carries a field -> reason map describing every rule the
// caller's payload violated. It is always recoverable: the caller can resubmit
// corrected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// AsValidationError unwraps err into a *ValidationError, or nil.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
