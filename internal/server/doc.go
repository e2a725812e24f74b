// Package server exposes the storefront over HTTP.
//
// Routes (chi):
//
//	GET    /api/state                  current snapshot
//	GET    /api/state/stream           WebSocket stream of snapshots
//	GET    /api/products[?filter=]     loaded catalog, optionally filtered
//	GET    /api/products/{id}          product detail
//	POST   /api/products/reload        refetch the catalog
//	POST   /api/actions                dispatch a wire action
//	POST   /api/cart/items             add to cart
//	PATCH  /api/cart/items/{id}        set quantity
//	POST   /api/cart/items/{id}/increase
//	POST   /api/cart/items/{id}/decrease
//	DELETE /api/cart/items/{id}        remove from cart
//	DELETE /api/cart                   clear cart
//	POST   /api/checkout               place an order
//	GET    /metrics                    Prometheus metrics
//
// Handlers only read snapshots and dispatch actions; every mutation goes
// through the configured dispatcher.
package server
