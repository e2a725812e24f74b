package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/storefront/internal/action"
)

// Handler receives every dispatched action.
type Handler func(ctx context.Context, a action.Action) error

// Token identifies a registered handler.
type Token string

type registration struct {
	token   Token
	handler Handler
}

// Dispatcher broadcasts actions to registered handlers.
//
// Thread-safety model:
//   - Register/Unregister: safe from any goroutine, but not from inside a handler
//   - Dispatch: one at a time; overlapping calls are rejected, never queued
//
// Callers that need queuing across goroutines go through engine.Engine.
type Dispatcher struct {
	mu       sync.Mutex
	handlers []registration
	lastID   int

	dispatching atomic.Bool
	inFlight    atomic.Value // action.Type of the running dispatch
}

// New creates a dispatcher with no handlers.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Register appends h to the handler list and returns its token.
func (d *Dispatcher) Register(h Handler) Token {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastID++
	token := Token(fmt.Sprintf("ID_%d", d.lastID))
	d.handlers = append(d.handlers, registration{token: token, handler: h})
	return token
}

// Unregister removes the handler registered under token.
// Returns false if the token is unknown.
func (d *Dispatcher) Unregister(token Token) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, r := range d.handlers {
		if r.token == token {
			d.handlers = append(d.handlers[:i:i], d.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

// IsDispatching reports whether a dispatch is currently running.
func (d *Dispatcher) IsDispatching() bool {
	return d.dispatching.Load()
}

// Dispatch delivers a to every handler in registration order.
//
// Returns a *DispatchError (matching ErrDispatchInProgress) if a dispatch is
// already running. Otherwise returns the first handler error, if any; the
// handlers after the failing one are not invoked.
func (d *Dispatcher) Dispatch(ctx context.Context, a action.Action) error {
	if a == nil {
		return fmt.Errorf("dispatch: nil action")
	}
	if !d.dispatching.CompareAndSwap(false, true) {
		inFlight, _ := d.inFlight.Load().(action.Type)
		return &DispatchError{InFlight: inFlight, Rejected: a.Type()}
	}
	d.inFlight.Store(a.Type())
	defer d.dispatching.Store(false)

	// Snapshot the handler list so the lock is not held while handlers run.
	d.mu.Lock()
	handlers := make([]registration, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.Unlock()

	slog.Debug("dispatching action", "type", a.Type(), "handlers", len(handlers))

	for _, r := range handlers {
		if err := r.handler(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
