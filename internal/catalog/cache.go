package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/storefront/internal/model"
	"github.com/roach88/storefront/internal/storage"
)

// CacheObserver counts cache-first lookups.
// *metrics.Metrics implements it.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

// Cache applies fetch strategies over a Client and a KV.
//
// Cached entries never expire; only Refresh replaces them.
type Cache struct {
	client   *Client
	kv       storage.KV
	observer CacheObserver
}

// NewCache creates a cache. observer may be nil.
func NewCache(client *Client, kv storage.KV, observer CacheObserver) *Cache {
	return &Cache{client: client, kv: kv, observer: observer}
}

// Client returns the underlying network client.
func (c *Cache) Client() *Client {
	return c.client
}

// CacheFirst returns the cached product list when one is stored, otherwise
// fetches it from the network and stores the body.
//
// An unreadable or undecodable cache entry counts as a miss.
func (c *Cache) CacheFirst(ctx context.Context) ([]model.Product, error) {
	raw, ok, err := c.kv.Get(ctx, storage.ProductsCacheKey)
	if err != nil {
		slog.Warn("products cache read failed", "key", storage.ProductsCacheKey, "error", err)
		ok = false
	}

	if ok && raw != "" {
		products, err := decodeProducts([]byte(raw))
		if err == nil {
			c.hit()
			slog.Debug("products cache hit", "count", len(products))
			return products, nil
		}
		slog.Warn("products cache entry unreadable", "key", storage.ProductsCacheKey, "error", err)
	}

	c.miss()
	return c.Refresh(ctx)
}

// NetworkOnly always fetches from the network and leaves the cache alone.
func (c *Cache) NetworkOnly(ctx context.Context) ([]model.Product, error) {
	return c.client.Products(ctx)
}

// Refresh fetches from the network and overwrites the cache entry.
// A failed cache write is logged; the fetched products are still returned.
func (c *Cache) Refresh(ctx context.Context) ([]model.Product, error) {
	body, err := c.client.productsBody(ctx)
	if err != nil {
		return nil, err
	}

	products, err := decodeProducts(body)
	if err != nil {
		return nil, fmt.Errorf("refresh products: %w", err)
	}

	if err := c.kv.Set(ctx, storage.ProductsCacheKey, string(body)); err != nil {
		slog.Warn("products cache write failed", "key", storage.ProductsCacheKey, "error", err)
	}
	return products, nil
}

func (c *Cache) hit() {
	if c.observer != nil {
		c.observer.CacheHit()
	}
}

func (c *Cache) miss() {
	if c.observer != nil {
		c.observer.CacheMiss()
	}
}
