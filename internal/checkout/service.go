package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/model"
)

// Default delays between submit, confirmation, and clearing the cart.
const (
	DefaultSubmitDelay  = 1500 * time.Millisecond
	DefaultSuccessDelay = 2000 * time.Millisecond
)

// StateReader exposes state snapshots. *state.Store implements it.
type StateReader interface {
	State() model.State
}

// Service places orders against the store.
type Service struct {
	store        StateReader
	creators     action.Creators
	clock        Clock
	ids          IDGenerator
	submitDelay  time.Duration
	successDelay time.Duration
	onPlaced     func(Receipt)
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock driving the delays.
func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithIDGenerator sets the order ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) {
		s.ids = g
	}
}

// WithDelays overrides the submit and success delays.
func WithDelays(submit, success time.Duration) Option {
	return func(s *Service) {
		s.submitDelay = submit
		s.successDelay = success
	}
}

// WithOnPlaced registers a callback run when the order is placed, before
// the success delay.
func WithOnPlaced(fn func(Receipt)) Option {
	return func(s *Service) {
		s.onPlaced = fn
	}
}

// NewService creates a checkout service dispatching through d.
func NewService(store StateReader, d action.Dispatcher, opts ...Option) *Service {
	s := &Service{
		store:        store,
		creators:     action.NewCreators(d),
		clock:        SystemClock{},
		ids:          UUIDv7Generator{},
		submitDelay:  DefaultSubmitDelay,
		successDelay: DefaultSuccessDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates form and places an order for the current cart.
//
// Returns ErrIncompleteForm (as *FormError) or ErrEmptyCart without waiting.
// If ctx ends during either delay, Submit returns ctx.Err() and the cart is
// left as it was.
func (s *Service) Submit(ctx context.Context, form Form) (Receipt, error) {
	if err := form.Validate(); err != nil {
		return Receipt{}, err
	}
	if len(s.store.State().Cart) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	if err := s.wait(ctx, s.submitDelay); err != nil {
		slog.Info("checkout cancelled", "stage", "submit", "error", err)
		return Receipt{}, err
	}

	// The cart may have changed while the order was processing.
	st := s.store.State()
	if len(st.Cart) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	receipt := Receipt{
		OrderID:   s.ids.Generate(),
		Customer:  form.Normalize(),
		Items:     st.Cart,
		ItemCount: st.CartCount(),
		Total:     st.CartTotal(),
		PlacedAt:  s.clock.Now().UTC(),
	}
	slog.Info("order placed",
		"order_id", receipt.OrderID,
		"items", receipt.ItemCount,
		"total", receipt.Total.StringFixed(2),
	)
	if s.onPlaced != nil {
		s.onPlaced(receipt)
	}

	if err := s.wait(ctx, s.successDelay); err != nil {
		slog.Info("checkout cancelled", "stage", "success", "order_id", receipt.OrderID, "error", err)
		return receipt, err
	}

	if err := s.creators.ClearCart(ctx); err != nil {
		return receipt, fmt.Errorf("clear cart after order %s: %w", receipt.OrderID, err)
	}
	return receipt, nil
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-s.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
