package catalog

import (
	"errors"
	"fmt"
)

// Messages shown to users when catalog work fails.
const (
	LoadErrorMessage   = "No se pudieron cargar los productos."
	DetailErrorMessage = "Error al cargar el producto"
)

// ErrNotFound is returned when the API answers a product lookup with an
// empty body.
var ErrNotFound = errors.New("product not found")

// StatusError reports a non-2xx response from the products API.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("products api: GET %s: status %d", e.URL, e.StatusCode)
}

// SchemaError reports a response body that does not match the wire shape.
type SchemaError struct {
	Definition string
	Err        error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("response does not match %s: %v", e.Definition, e.Err)
}

// Unwrap exposes the CUE error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsStatusError returns true if err wraps a *StatusError with the given
// code. A code of 0 matches any status.
func IsStatusError(err error, code int) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return code == 0 || se.StatusCode == code
	}
	return false
}
