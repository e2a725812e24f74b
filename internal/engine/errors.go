package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/storefront/internal/action"
)

// ErrStopped is returned for actions submitted to, or still queued in, an
// engine whose Run loop has exited.
var ErrStopped = errors.New("engine stopped")

// RuntimeError describes a failed dispatch of a queued action.
type RuntimeError struct {
	// Seq is the logical clock value stamped on the action.
	Seq int64

	// Type is the action type that failed.
	Type action.Type

	// Err is the error returned by the dispatch target.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("dispatch %s (seq=%d): %v", e.Type, e.Seq, e.Err)
}

// Unwrap exposes the underlying dispatch error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsStopped returns true if the error reports a stopped engine.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}

// SeqOf returns the seq of a wrapped RuntimeError, or 0.
func SeqOf(err error) int64 {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Seq
	}
	return 0
}
