package state

import (
	"context"
	"errors"

	"github.com/roach88/storefront/internal/action"
)

// ErrNotInCart is returned when a cart gesture names a product that is not
// in the cart.
var ErrNotInCart = errors.New("product not in cart")

// Cart implements the increase/decrease gestures of the cart sidebar on top
// of UPDATE_QUANTITY and REMOVE_FROM_CART.
//
// The quantity is read from a snapshot before dispatching, so callers on
// many goroutines should dispatch through an engine.Engine.
type Cart struct {
	store    *Store
	creators action.Creators
}

// NewCart creates cart gestures over s, dispatching through d.
func NewCart(s *Store, d action.Dispatcher) *Cart {
	return &Cart{store: s, creators: action.NewCreators(d)}
}

// Increase adds one to the quantity of productID.
func (c *Cart) Increase(ctx context.Context, productID int) error {
	item, ok := c.store.State().FindCartItem(productID)
	if !ok {
		return ErrNotInCart
	}
	return c.creators.UpdateQuantity(ctx, productID, item.Quantity+1)
}

// Decrease subtracts one from the quantity of productID, removing the item
// when it would drop below one.
func (c *Cart) Decrease(ctx context.Context, productID int) error {
	item, ok := c.store.State().FindCartItem(productID)
	if !ok {
		return ErrNotInCart
	}
	if item.Quantity <= 1 {
		return c.creators.RemoveFromCart(ctx, productID)
	}
	return c.creators.UpdateQuantity(ctx, productID, item.Quantity-1)
}
