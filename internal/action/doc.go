// Package action defines the closed set of storefront actions.
//
// Every action kind is its own Go type implementing the sealed Action
// interface, so a payload's shape is fixed by its kind at compile time.
// Consumers switch exhaustively on the concrete type:
//
//	switch a := act.(type) {
//	case action.AddToCart:
//	    // a.Product, a.Quantity
//	case action.ClearCart:
//	    // no payload
//	}
//
// The JSON wire form {"type": "...", "payload": ...} is handled by Decode
// and Encode. Decode is the only place where a payload can arrive in the
// wrong shape; it reports that as ErrMalformed so that callers can drop the
// message without touching state.
//
// Creators wraps a Dispatcher with one method per action kind, shaping the
// payload before dispatching.
package action
