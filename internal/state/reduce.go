package state

import (
	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/model"
)

// reduce computes the state that results from applying a to cur.
//
// cur is never modified: slices that change are rebuilt, slices that do not
// change are shared with cur. changed is false when the action is dropped,
// in which case next must be ignored.
//
// Dropped actions:
//   - LOAD_PRODUCTS with a nil product slice
//   - ADD_TO_CART with Quantity < 1
//   - REMOVE_FROM_CART / UPDATE_QUANTITY for a product not in the cart
//   - any action type the store does not handle
func reduce(cur model.State, a action.Action) (next model.State, changed bool) {
	next = cur

	switch a := a.(type) {
	case action.IncrementCount:
		next.Count += a.By

	case action.DecrementCount:
		next.Count -= a.By

	case action.SaveUser:
		u := a.User
		next.User = &u

	case action.LoadProducts:
		if a.Products == nil {
			return cur, false
		}
		next.Products = model.CloneProducts(a.Products)

	case action.SetLoading:
		next.IsLoading = a.Loading

	case action.SetError:
		next.Error = nil
		if a.Message != nil {
			msg := *a.Message
			next.Error = &msg
		}

	case action.AddToCart:
		if a.Quantity < 1 {
			return cur, false
		}
		next.Cart = addToCart(cur.Cart, a.Product, a.Quantity)

	case action.RemoveFromCart:
		i := indexOf(cur.Cart, a.ProductID)
		if i < 0 {
			return cur, false
		}
		next.Cart = removeAt(cur.Cart, i)

	case action.UpdateQuantity:
		i := indexOf(cur.Cart, a.ProductID)
		if i < 0 {
			return cur, false
		}
		if a.Quantity < 1 {
			next.Cart = removeAt(cur.Cart, i)
			break
		}
		next.Cart = model.CloneCart(cur.Cart)
		next.Cart[i].Quantity = a.Quantity

	case action.ClearCart:
		next.Cart = []model.CartItem{}

	default:
		return cur, false
	}

	return next, true
}

// addToCart merges quantity units of p into cart. An existing line keeps its
// position and product data; a new line is appended.
func addToCart(cart []model.CartItem, p model.Product, quantity int) []model.CartItem {
	out := model.CloneCart(cart)
	if i := indexOf(out, p.ID); i >= 0 {
		out[i].Quantity += quantity
		return out
	}
	return append(out, model.CartItem{Product: p, Quantity: quantity})
}

func indexOf(cart []model.CartItem, productID int) int {
	for i, item := range cart {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func removeAt(cart []model.CartItem, i int) []model.CartItem {
	out := make([]model.CartItem, 0, len(cart)-1)
	out = append(out, cart[:i]...)
	return append(out, cart[i+1:]...)
}
