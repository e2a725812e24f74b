// Package engine serializes actions onto a single dispatching goroutine.
//
// The dispatcher rejects a dispatch that starts while another is running.
// Surfaces that act from many goroutines (HTTP handlers, catalog loads,
// checkout timers) submit through an Engine instead: Run dequeues actions
// in FIFO order and dispatches them one at a time, so concurrent callers
// never trip the in-progress guard.
//
// Single-Writer Loop:
//  1. Submit or Enqueue stamps the action with a logical seq from Clock
//  2. Run dequeues events one at a time
//  3. Each event is dispatched to the target with the submitter's context
//  4. Submit callers receive the dispatch error; Enqueue callers do not
//
// Failures of fire-and-forget events are logged with their seq and action
// type and the loop continues.
package engine
