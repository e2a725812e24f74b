package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/dispatcher"
)

// Observer is notified after every dispatch the Run loop performs.
// *metrics.Metrics implements it.
type Observer interface {
	DispatchObserved(t action.Type, d time.Duration, err error)
}

// Engine is the single-writer action loop.
//
// Thread-safety model:
//   - Submit(), Enqueue(), Dispatch(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// Code running inside a dispatch (store listeners) must not wait on the
// loop. Submit with a context derived from the in-flight dispatch fails
// with *dispatcher.DispatchError; Enqueue is the way to chain actions.
type Engine struct {
	target   action.Dispatcher
	clock    *Clock
	queue    *eventQueue
	observer Observer
	stopped  chan struct{}
}

// loopKey marks contexts handed to the target by Run.
type loopKey struct{}

type loopMarker struct {
	engine   *Engine
	inFlight action.Type
}

// inFlight reports the action this engine is dispatching when ctx was
// derived from a dispatch made by its Run loop.
func (e *Engine) inFlight(ctx context.Context) (action.Type, bool) {
	m, ok := ctx.Value(loopKey{}).(loopMarker)
	if !ok || m.engine != e {
		return "", false
	}
	return m.inFlight, true
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the logical clock, e.g. to resume numbering.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithObserver sets the dispatch observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New creates an Engine dispatching to target.
func New(target action.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		target:  target,
		clock:   NewClock(),
		queue:   newEventQueue(),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Enqueue submits an action without waiting for its result.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ctx context.Context, a action.Action) bool {
	return e.queue.Enqueue(Event{
		Seq:    e.clock.Next(),
		Action: a,
		ctx:    context.WithoutCancel(ctx),
	})
}

// Submit queues an action and waits until the Run loop has dispatched it.
//
// Returns the dispatch error wrapped in *RuntimeError, ErrStopped if the
// engine is not accepting work, or ctx.Err() if ctx ends first. An action
// whose caller gave up is still dispatched. Submitting from inside a
// dispatch of the same engine returns *dispatcher.DispatchError.
func (e *Engine) Submit(ctx context.Context, a action.Action) error {
	if t, ok := e.inFlight(ctx); ok {
		slog.Debug("nested submit rejected", "in_flight", t, "rejected", a.Type())
		return &dispatcher.DispatchError{InFlight: t, Rejected: a.Type()}
	}

	done := make(chan error, 1)
	ev := Event{
		Seq:    e.clock.Next(),
		Action: a,
		ctx:    context.WithoutCancel(ctx),
		done:   done,
	}
	if !e.queue.Enqueue(ev) {
		return ErrStopped
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		// Run may have delivered the result just before exiting.
		select {
		case err := <-done:
			return err
		default:
			return ErrStopped
		}
	}
}

// Dispatch implements action.Dispatcher by submitting through the loop.
func (e *Engine) Dispatch(ctx context.Context, a action.Action) error {
	return e.Submit(ctx, a)
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// Stop drains the queue before returning; cancellation fails the remaining
// events with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")
	defer close(e.stopped)

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			e.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			e.abandon()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Len() == 0 && e.isClosed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue; Run returns once the queue is drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Done is closed when Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.stopped
}

func (e *Engine) isClosed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// process dispatches one event. Called only from Run.
func (e *Engine) process(ev Event) {
	t := ev.Action.Type()
	slog.Debug("dispatching queued action", "seq", ev.Seq, "type", t)

	ctx := context.WithValue(ev.ctx, loopKey{}, loopMarker{engine: e, inFlight: t})

	start := time.Now()
	err := e.target.Dispatch(ctx, ev.Action)
	if e.observer != nil {
		e.observer.DispatchObserved(t, time.Since(start), err)
	}

	if err != nil {
		err = &RuntimeError{Seq: ev.Seq, Type: t, Err: err}
		if ev.done == nil {
			slog.Error("queued action failed",
				"seq", ev.Seq,
				"type", t,
				"error", err,
			)
		}
	}

	if ev.done != nil {
		ev.done <- err
	}
}

// abandon fails every event still queued when Run exits.
func (e *Engine) abandon() {
	for _, ev := range e.queue.Drain() {
		slog.Warn("queued action abandoned", "seq", ev.Seq, "type", ev.Action.Type())
		if ev.done != nil {
			ev.done <- ErrStopped
		}
	}
}
