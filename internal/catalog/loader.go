package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/model"
)

// Loader runs the catalog load lifecycle against a dispatcher.
type Loader struct {
	cache    *Cache
	creators action.Creators
}

// NewLoader creates a loader dispatching through d.
func NewLoader(cache *Cache, d action.Dispatcher) *Loader {
	return &Loader{cache: cache, creators: action.NewCreators(d)}
}

// Load fetches the catalog cache-first.
//
// It dispatches SET_LOADING(true), then LOAD_PRODUCTS on success or
// SET_ERROR(LoadErrorMessage) on failure, and always SET_LOADING(false).
// The fetch error is returned after the lifecycle completes.
func (l *Loader) Load(ctx context.Context) error {
	return l.run(ctx, l.cache.CacheFirst)
}

// Reload is Load with a network fetch that overwrites the cache.
func (l *Loader) Reload(ctx context.Context) error {
	return l.run(ctx, l.cache.Refresh)
}

func (l *Loader) run(ctx context.Context, fetch func(context.Context) ([]model.Product, error)) (err error) {
	if err := l.creators.SetLoading(ctx, true); err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	defer func() {
		// Use a context that survives cancellation so loading always ends.
		if doneErr := l.creators.SetLoading(context.WithoutCancel(ctx), false); doneErr != nil {
			err = errors.Join(err, fmt.Errorf("load products: %w", doneErr))
		}
	}()

	products, fetchErr := fetch(ctx)
	if fetchErr != nil {
		slog.Warn("catalog load failed", "error", fetchErr)
		if err := l.creators.SetError(context.WithoutCancel(ctx), LoadErrorMessage); err != nil {
			return errors.Join(fetchErr, err)
		}
		return fmt.Errorf("load products: %w", fetchErr)
	}

	if err := l.creators.LoadProducts(ctx, products); err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	slog.Info("catalog loaded", "count", len(products))
	return nil
}

// Detail returns the product with id from the loaded catalog in st, or
// fetches it from the network when it is not loaded.
func (l *Loader) Detail(ctx context.Context, st model.State, id int) (model.Product, error) {
	if p, ok := st.FindProduct(id); ok {
		return p, nil
	}
	p, err := l.cache.Client().Product(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product detail %d: %w", id, err)
	}
	return p, nil
}
