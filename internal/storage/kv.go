package storage

import "context"

// Well-known keys.
const (
	// CartKey holds the JSON array of cart items.
	CartKey = "ecommerce_cart"

	// ProductsCacheKey holds the raw JSON array of the cached catalog.
	ProductsCacheKey = "products_cache"
)

// KV is a durable string key-value store.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
