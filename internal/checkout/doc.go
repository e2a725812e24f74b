// Package checkout validates the checkout form and places orders.
//
// Submit waits a simulated processing delay, reports the placed order,
// waits a confirmation delay, then clears the cart. Delays run on an
// injectable Clock and end early when the caller's context is cancelled,
// leaving the cart untouched.
package checkout
