// Package storage provides the durable string key-value store behind the
// storefront's persisted slices (the cart under "ecommerce_cart" and the
// catalog cache under "products_cache").
//
// Backends:
//   - SQLite: default, a single kv table in a local database file
//   - S3: one object per key under a bucket prefix
//   - Memory: process-local map, used by tests and the scenario harness
//
// Values are opaque strings; callers own their encoding. There is no
// versioning field and no migration of stored values.
//
// # SQLite configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - one open connection: SQLite allows a single writer
package storage
