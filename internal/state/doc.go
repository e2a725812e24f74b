// Package state implements the storefront Store: the exclusive owner and
// mutator of application state.
//
// The Store registers itself as a handler on a dispatcher.Dispatcher. For
// every action it:
//
//  1. Computes the transition for the action's concrete type
//  2. Drops the action if its payload is semantically invalid (no change,
//     no persistence, no notification)
//  3. For cart actions, writes the next cart to storage BEFORE committing it,
//     so the persisted and in-memory carts never diverge
//  4. Commits the new state and notifies subscribers, in subscription order,
//     each with its own snapshot copy
//
// Subscribers get replay-on-subscribe: Subscribe calls the listener once
// with the current snapshot before returning.
//
// The cart slice is hydrated from storage key "ecommerce_cart" when the Store
// is constructed. A corrupt or unreadable value is logged and ignored.
package state
