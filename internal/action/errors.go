package action

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched (via errors.Is) by every decode failure.
var ErrMalformed = errors.New("malformed action")

// MalformedError describes why a wire action was rejected.
type MalformedError struct {
	// Type is the declared action type, empty when it could not be read.
	Type Type

	// Reason is a human-readable description of the shape mismatch.
	Reason string
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("malformed action: %s", e.Reason)
	}
	return fmt.Sprintf("malformed action %s: %s", e.Type, e.Reason)
}

// Is reports ErrMalformed as a match.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(t Type, format string, args ...any) *MalformedError {
	return &MalformedError{Type: t, Reason: fmt.Sprintf(format, args...)}
}
