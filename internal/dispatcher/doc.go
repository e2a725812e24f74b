// Package dispatcher implements the single-channel action broadcaster.
//
// A Dispatcher accepts one action at a time and invokes every registered
// handler synchronously, in registration order, before Dispatch returns.
//
// Re-entrancy: Dispatch called while another Dispatch on the same instance
// is still running (from inside a handler, a subscriber, or another
// goroutine) fails immediately with ErrDispatchInProgress. The guard is an
// explicit flag exposed through IsDispatching, so callers can inspect the
// contract instead of discovering it by failure.
//
// Failure is fail-fast: the first handler error aborts the remaining
// handlers for that dispatch and is returned to the caller unchanged.
package dispatcher
