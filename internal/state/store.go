package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/dispatcher"
	"github.com/roach88/storefront/internal/model"
	"github.com/roach88/storefront/internal/storage"
)

// Listener receives a state snapshot after every change. ctx is the context
// the action was dispatched with; listeners that dispatch follow-up actions
// must pass it on.
type Listener func(ctx context.Context, s model.State)

// Subscription identifies a registered listener.
type Subscription struct {
	id uint64
}

type subscriber struct {
	id       uint64
	listener Listener
}

// Observer receives store events for metrics. All methods must be cheap and
// must not call back into the Store.
type Observer interface {
	ActionApplied(t action.Type)
	ActionDropped(t action.Type)
	SubscribersChanged(n int)
}

// Store owns the canonical application state.
type Store struct {
	mu    sync.RWMutex
	state model.State

	subMu  sync.Mutex
	subs   []subscriber
	nextID uint64

	kv       storage.KV
	observer Observer
	token    dispatcher.Token
}

// Option configures a Store.
type Option func(*Store)

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// New creates a Store, hydrates the cart from kv and registers the store's
// handler on d. The store must be the only handler registered on d.
func New(ctx context.Context, d *dispatcher.Dispatcher, kv storage.KV, opts ...Option) *Store {
	s := &Store{
		state: model.NewState(),
		kv:    kv,
	}
	for _, opt := range opts {
		opt(s)
	}

	if cart, ok := loadCart(ctx, kv); ok {
		s.state.Cart = cart
	}

	s.token = d.Register(s.handle)
	return s
}

// Token returns the dispatcher token of the store's handler.
func (s *Store) Token() dispatcher.Token {
	return s.token
}

// State returns a snapshot of the current state.
func (s *Store) State() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe appends l to the listener list and immediately calls it once
// with the current snapshot.
func (s *Store) Subscribe(l Listener) Subscription {
	s.subMu.Lock()
	s.nextID++
	sub := Subscription{id: s.nextID}
	s.subs = append(s.subs, subscriber{id: sub.id, listener: l})
	n := len(s.subs)
	s.subMu.Unlock()

	if s.observer != nil {
		s.observer.SubscribersChanged(n)
	}

	l(context.Background(), s.State())
	return sub
}

// Unsubscribe removes the listener registered under sub. Unknown
// subscriptions are ignored.
func (s *Store) Unsubscribe(sub Subscription) {
	s.subMu.Lock()
	removed := false
	for i, r := range s.subs {
		if r.id == sub.id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			removed = true
			break
		}
	}
	n := len(s.subs)
	s.subMu.Unlock()

	if removed && s.observer != nil {
		s.observer.SubscribersChanged(n)
	}
}

// handle is the store's dispatcher handler.
func (s *Store) handle(ctx context.Context, a action.Action) error {
	s.mu.RLock()
	next, changed := reduce(s.state, a)
	s.mu.RUnlock()

	if !changed {
		slog.Debug("action dropped", "type", a.Type())
		if s.observer != nil {
			s.observer.ActionDropped(a.Type())
		}
		return nil
	}

	if action.IsCartAction(a.Type()) {
		if err := saveCart(ctx, s.kv, next.Cart); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.state = next
	snapshot := s.state.Clone()
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ActionApplied(a.Type())
	}
	s.emitChange(ctx, snapshot)
	return nil
}

// emitChange notifies subscribers in order. Each listener gets its own copy
// of the snapshot; no lock is held while listeners run.
func (s *Store) emitChange(ctx context.Context, snapshot model.State) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.listener(ctx, snapshot.Clone())
	}
}
