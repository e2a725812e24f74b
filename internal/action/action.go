package action

import "github.com/roach88/storefront/internal/model"

// Type is the namespaced action type string used on the wire.
type Type string

// Counter actions.
const (
	TypeIncrementCount Type = "INCREMENT_COUNT"
	TypeDecrementCount Type = "DECREMENT_COUNT"
)

// User actions.
const (
	TypeSaveUser Type = "SAVE_USER"
)

// Product actions.
const (
	TypeLoadProducts Type = "LOAD_PRODUCTS"
	TypeSetLoading   Type = "SET_LOADING"
	TypeSetError     Type = "SET_ERROR"
)

// Cart actions.
const (
	TypeAddToCart      Type = "ADD_TO_CART"
	TypeRemoveFromCart Type = "REMOVE_FROM_CART"
	TypeUpdateQuantity Type = "UPDATE_QUANTITY"
	TypeClearCart      Type = "CLEAR_CART"
)

// Types lists every action type in declaration order.
var Types = []Type{
	TypeIncrementCount,
	TypeDecrementCount,
	TypeSaveUser,
	TypeLoadProducts,
	TypeSetLoading,
	TypeSetError,
	TypeAddToCart,
	TypeRemoveFromCart,
	TypeUpdateQuantity,
	TypeClearCart,
}

// Action is a tagged request to change state.
// Sealed: only the types in this package implement it.
type Action interface {
	Type() Type
	action()
}

// IsCartAction reports whether actions of type t mutate the cart slice and
// therefore trigger persistence.
func IsCartAction(t Type) bool {
	switch t {
	case TypeAddToCart, TypeRemoveFromCart, TypeUpdateQuantity, TypeClearCart:
		return true
	}
	return false
}

// IncrementCount adds By to the demo counter.
type IncrementCount struct{ By int }

// DecrementCount subtracts By from the demo counter.
type DecrementCount struct{ By int }

// SaveUser replaces the current user.
type SaveUser struct{ User model.User }

// LoadProducts replaces the catalog wholesale. A nil slice is malformed;
// use an empty slice to clear the catalog.
type LoadProducts struct{ Products []model.Product }

// SetLoading sets the catalog loading flag.
type SetLoading struct{ Loading bool }

// SetError sets or clears (nil) the catalog error message.
type SetError struct{ Message *string }

// AddToCart merges Quantity units of Product into the cart.
type AddToCart struct {
	Product  model.Product
	Quantity int
}

// RemoveFromCart drops the cart line for ProductID.
type RemoveFromCart struct{ ProductID int }

// UpdateQuantity sets the quantity of the cart line for ProductID.
type UpdateQuantity struct {
	ProductID int
	Quantity  int
}

// ClearCart empties the cart.
type ClearCart struct{}

func (IncrementCount) Type() Type { return TypeIncrementCount }
func (DecrementCount) Type() Type { return TypeDecrementCount }
func (SaveUser) Type() Type       { return TypeSaveUser }
func (LoadProducts) Type() Type   { return TypeLoadProducts }
func (SetLoading) Type() Type     { return TypeSetLoading }
func (SetError) Type() Type       { return TypeSetError }
func (AddToCart) Type() Type      { return TypeAddToCart }
func (RemoveFromCart) Type() Type { return TypeRemoveFromCart }
func (UpdateQuantity) Type() Type { return TypeUpdateQuantity }
func (ClearCart) Type() Type      { return TypeClearCart }

func (IncrementCount) action() {}
func (DecrementCount) action() {}
func (SaveUser) action()       {}
func (LoadProducts) action()   {}
func (SetLoading) action()     {}
func (SetError) action()       {}
func (AddToCart) action()      {}
func (RemoveFromCart) action() {}
func (UpdateQuantity) action() {}
func (ClearCart) action()      {}
