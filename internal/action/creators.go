package action

import (
	"context"

	"github.com/roach88/storefront/internal/model"
)

// Dispatcher delivers an action to the store.
// Implemented by *dispatcher.Dispatcher (direct, same goroutine) and
// *engine.Engine (serialized through the single-writer loop).
type Dispatcher interface {
	Dispatch(ctx context.Context, a Action) error
}

// Creators exposes one method per action kind. Each method shapes its
// payload and hands the action to the injected Dispatcher.
type Creators struct {
	d Dispatcher
}

// NewCreators binds the action creators to a dispatcher.
func NewCreators(d Dispatcher) Creators {
	return Creators{d: d}
}

// Increment adds value to the counter.
func (c Creators) Increment(ctx context.Context, value int) error {
	return c.d.Dispatch(ctx, IncrementCount{By: value})
}

// Decrement subtracts value from the counter.
func (c Creators) Decrement(ctx context.Context, value int) error {
	return c.d.Dispatch(ctx, DecrementCount{By: value})
}

// SaveUser stores the user profile.
func (c Creators) SaveUser(ctx context.Context, name string, age int) error {
	return c.d.Dispatch(ctx, SaveUser{User: model.User{Name: name, Age: age}})
}

// LoadProducts replaces the catalog. A nil slice loads an empty catalog.
func (c Creators) LoadProducts(ctx context.Context, products []model.Product) error {
	return c.d.Dispatch(ctx, LoadProducts{Products: model.CloneProducts(products)})
}

// SetLoading toggles the catalog loading flag.
func (c Creators) SetLoading(ctx context.Context, loading bool) error {
	return c.d.Dispatch(ctx, SetLoading{Loading: loading})
}

// SetError records a user-visible catalog error.
func (c Creators) SetError(ctx context.Context, message string) error {
	return c.d.Dispatch(ctx, SetError{Message: &message})
}

// ClearError removes the catalog error.
func (c Creators) ClearError(ctx context.Context) error {
	return c.d.Dispatch(ctx, SetError{})
}

// AddToCart adds quantity units of product; a zero quantity means one.
func (c Creators) AddToCart(ctx context.Context, product model.Product, quantity int) error {
	if quantity == 0 {
		quantity = 1
	}
	return c.d.Dispatch(ctx, AddToCart{Product: product, Quantity: quantity})
}

// RemoveFromCart drops a product from the cart.
func (c Creators) RemoveFromCart(ctx context.Context, productID int) error {
	return c.d.Dispatch(ctx, RemoveFromCart{ProductID: productID})
}

// UpdateQuantity sets the quantity of a cart line. Quantities below one
// remove the line.
func (c Creators) UpdateQuantity(ctx context.Context, productID, quantity int) error {
	return c.d.Dispatch(ctx, UpdateQuantity{ProductID: productID, Quantity: quantity})
}

// ClearCart empties the cart.
func (c Creators) ClearCart(ctx context.Context) error {
	return c.d.Dispatch(ctx, ClearCart{})
}
