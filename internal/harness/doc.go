// Package harness runs storefront scenarios against the real dispatch path.
//
// A scenario seeds durable storage, dispatches a list of wire actions
// through an engine, a dispatcher and a store, and then asserts on the
// trace of outcomes, the final state, the persisted cart and the number of
// change notifications.
//
// # Scenario Format
//
//	name: cart_lifecycle
//	description: "Adding, updating and removing cart lines"
//	persisted:
//	  ecommerce_cart: [{id: 5, title: Bracelet, price: 695, quantity: 1}]
//	setup:
//	  - dispatch: {type: LOAD_PRODUCTS, payload: [{id: 6, title: Ring, price: 9.99}]}
//	flow:
//	  - dispatch: {type: ADD_TO_CART, payload: {product: {id: 6, title: Ring, price: 9.99}, quantity: 2}}
//	    expect: applied
//	  - dispatch: {type: REMOVE_FROM_CART, payload: 99}
//	    expect: dropped
//	assertions:
//	  - type: final_state
//	    path: cart.#
//	    equals: 2
//	  - type: persisted
//	    path: "#(id==6).quantity"
//	    equals: 2
//
// Persisted values are JSON encoded before they are written; string values
// are written verbatim so that corrupt storage can be simulated. Setup steps
// must apply and are not traced.
//
// # Outcomes
//
// Every flow step ends in one of three outcomes:
//
//   - applied: the store accepted the action and notified subscribers
//   - dropped: the action decoded but the store left state unchanged
//   - malformed: the action did not decode and was never dispatched
//
// # Assertion Types
//
//   - trace_contains: a step with the action type (and payload subset) exists
//   - trace_order: action types first appear in the given order
//   - trace_count: number of steps with the action type and/or outcome
//   - final_state: gjson path over the final state JSON
//   - persisted: gjson path over a stored value (default key ecommerce_cart)
//   - notifications: number of change notifications during the flow
//
// Payload keys and assertion paths use gjson syntax; "@this" addresses a
// scalar payload.
//
// # Golden Files
//
// RunWithGolden compares the canonical trace and final state with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
