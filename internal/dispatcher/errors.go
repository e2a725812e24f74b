package dispatcher

import (
	"errors"
	"fmt"

	"github.com/roach88/storefront/internal/action"
)

// ErrDispatchInProgress is returned when Dispatch is called before a prior
// Dispatch on the same dispatcher has returned.
var ErrDispatchInProgress = errors.New("cannot dispatch in the middle of a dispatch")

// DispatchError reports a rejected nested dispatch.
type DispatchError struct {
	// InFlight is the type of the action currently being dispatched.
	InFlight action.Type

	// Rejected is the type of the action that was refused.
	Rejected action.Type
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s rejected while %s is dispatching",
		ErrDispatchInProgress.Error(), e.Rejected, e.InFlight)
}

// Unwrap exposes ErrDispatchInProgress to errors.Is.
func (e *DispatchError) Unwrap() error {
	return ErrDispatchInProgress
}

// IsDispatchInProgress reports whether err is a re-entrancy rejection.
func IsDispatchInProgress(err error) bool {
	return errors.Is(err, ErrDispatchInProgress)
}
