// Package catalog fetches the product catalog and drives its load lifecycle.
//
// Client talks to the products API (GET /products, GET /products/{id}) and
// validates every response body against an embedded CUE schema. Cache layers
// the cache-first and network-only strategies over a storage.KV under the
// "products_cache" key. Loader dispatches SET_LOADING, LOAD_PRODUCTS and
// SET_ERROR around a fetch. Filter evaluates expr-lang expressions over
// products.
package catalog
