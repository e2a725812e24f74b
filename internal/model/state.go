package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// State is the complete application state.
//
// A State obtained from the store is a snapshot: it shares nothing with the
// store's internal copy, so readers may keep or modify it freely.
type State struct {
	Count     int        `json:"count"`
	User      *User      `json:"user"`
	Products  []Product  `json:"products"`
	IsLoading bool       `json:"isLoading"`
	Error     *string    `json:"error"`
	Cart      []CartItem `json:"cart"`
}

// NewState returns the default state: zero counter, no user, empty catalog
// and an empty cart.
func NewState() State {
	return State{
		Products: []Product{},
		Cart:     []CartItem{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	out.Products = CloneProducts(s.Products)
	out.Cart = CloneCart(s.Cart)
	return out
}

// CloneProducts copies a product slice. A nil input yields an empty slice.
func CloneProducts(in []Product) []Product {
	if in == nil {
		return []Product{}
	}
	return slices.Clone(in)
}

// CloneCart copies a cart slice. A nil input yields an empty slice.
func CloneCart(in []CartItem) []CartItem {
	if in == nil {
		return []CartItem{}
	}
	return slices.Clone(in)
}

// FindProduct returns the loaded catalog product with the given ID.
func (s State) FindProduct(id int) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// FindCartItem returns the cart line for the given product ID.
func (s State) FindCartItem(id int) (CartItem, bool) {
	for _, item := range s.Cart {
		if item.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

// CartCount returns the total number of units in the cart.
func (s State) CartCount() int {
	n := 0
	for _, item := range s.Cart {
		n += item.Quantity
	}
	return n
}

// CartTotal returns the sum of price * quantity over the cart.
// Arithmetic is decimal so that 0.1 + 0.2 style float drift never reaches
// a displayed total.
func (s State) CartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Cart {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}
