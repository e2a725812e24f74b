package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/model"
	"github.com/roach88/storefront/internal/storage"
)

const productsBody = `[
  {"id":1,"title":"Backpack","price":109.95,"description":"Fits 15 inch laptops","category":"men's clothing","image":"https://example.com/1.jpg","rating":{"rate":3.9,"count":120}},
  {"id":5,"title":"Bracelet","price":695,"description":"Dragon station chain","category":"jewelery","image":"https://example.com/5.jpg","rating":{"rate":4.6,"count":400}},
  {"id":6,"title":"Petite Micropave","price":9.99,"description":"Gold ring","category":"jewelery","image":"https://example.com/6.jpg"}
]`

const productBody = `{"id":5,"title":"Bracelet","price":695,"description":"Dragon station chain","category":"jewelery","image":"https://example.com/5.jpg"}`

// fakeAPI serves the products API with chi and counts list requests.
type fakeAPI struct {
	server   *httptest.Server
	list     atomic.Int32
	status   atomic.Int32
	listBody atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.status.Store(http.StatusOK)
	api.listBody.Store(productsBody)

	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, _ *http.Request) {
		api.list.Add(1)
		w.WriteHeader(int(api.status.Load()))
		_, _ = w.Write([]byte(api.listBody.Load().(string)))
	})
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "5" {
			_, _ = w.Write([]byte(productBody))
			return
		}
		// The public API answers unknown ids with an empty 200.
		w.WriteHeader(http.StatusOK)
	})

	api.server = httptest.NewServer(r)
	t.Cleanup(api.server.Close)
	return api
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithTracerProvider(noop.NewTracerProvider())}, opts...)
	c, err := NewClient(api.server.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func TestClient_Products(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api)

	products, err := c.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, model.Product{
		ID:          1,
		Title:       "Backpack",
		Price:       109.95,
		Description: "Fits 15 inch laptops",
		Category:    "men's clothing",
		Image:       "https://example.com/1.jpg",
	}, products[0])
	assert.Equal(t, 695.0, products[1].Price)
	assert.Equal(t, api.server.URL, c.BaseURL())
}

func TestClient_DefaultBaseURL(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestClient_StatusError(t *testing.T) {
	api := newFakeAPI(t)
	api.status.Store(http.StatusServiceUnavailable)
	c := newTestClient(t, api)

	_, err := c.Products(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatusError(err, http.StatusServiceUnavailable))
	assert.True(t, IsStatusError(err, 0))
	assert.False(t, IsStatusError(err, http.StatusNotFound))
}

func TestClient_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `[{"id":1,"price":1,"description":"d","category":"c","image":"i"}]`},
		{"price as string", `[{"id":1,"title":"t","price":"1.00","description":"d","category":"c","image":"i"}]`},
		{"fractional id", `[{"id":1.5,"title":"t","price":1,"description":"d","category":"c","image":"i"}]`},
		{"object instead of list", `{"id":1}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.listBody.Store(tt.body)
			c := newTestClient(t, api)

			_, err := c.Products(context.Background())
			require.Error(t, err)
			var se *SchemaError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestClient_Product(t *testing.T) {
	api := newFakeAPI(t)
	c := newTestClient(t, api)

	p, err := c.Product(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Bracelet", p.Title)

	_, err = c.Product(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

type fetchRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (f *fetchRecorder) FetchObserved(_ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func TestClient_FetchObserver(t *testing.T) {
	api := newFakeAPI(t)
	rec := &fetchRecorder{}
	c := newTestClient(t, api, WithFetchObserver(rec))

	_, err := c.Products(context.Background())
	require.NoError(t, err)
	api.status.Store(http.StatusInternalServerError)
	_, err = c.Products(context.Background())
	require.Error(t, err)

	require.Len(t, rec.errs, 2)
	assert.NoError(t, rec.errs[0])
	assert.Error(t, rec.errs[1])
}

type cacheCounter struct {
	hits, misses int
}

func (c *cacheCounter) CacheHit()  { c.hits++ }
func (c *cacheCounter) CacheMiss() { c.misses++ }

func TestCache_CacheFirst(t *testing.T) {
	api := newFakeAPI(t)
	kv := storage.NewMemory()
	counter := &cacheCounter{}
	cache := NewCache(newTestClient(t, api), kv, counter)
	ctx := context.Background()

	first, err := cache.CacheFirst(ctx)
	require.NoError(t, err)
	second, err := cache.CacheFirst(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), api.list.Load(), "second call should be served from cache")
	assert.Equal(t, 1, counter.hits)
	assert.Equal(t, 1, counter.misses)

	stored, ok, err := kv.Get(ctx, storage.ProductsCacheKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, productsBody, stored)
}

func TestCache_CacheFirstNeverExpires(t *testing.T) {
	api := newFakeAPI(t)
	kv := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.ProductsCacheKey, `[{"id":9,"title":"Stale","price":1,"description":"","category":"","image":""}]`))

	cache := NewCache(newTestClient(t, api), kv, nil)
	products, err := cache.CacheFirst(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Stale", products[0].Title)
	assert.Equal(t, int32(0), api.list.Load())
}

func TestCache_CacheFirstUnreadableEntry(t *testing.T) {
	api := newFakeAPI(t)
	kv := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.ProductsCacheKey, `{not json`))

	counter := &cacheCounter{}
	cache := NewCache(newTestClient(t, api), kv, counter)
	products, err := cache.CacheFirst(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, 1, counter.misses)

	stored, _, _ := kv.Get(ctx, storage.ProductsCacheKey)
	assert.Equal(t, productsBody, stored)
}

func TestCache_CacheFirstNetworkFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.status.Store(http.StatusInternalServerError)
	kv := storage.NewMemory()
	cache := NewCache(newTestClient(t, api), kv, nil)
	ctx := context.Background()

	_, err := cache.CacheFirst(ctx)
	require.Error(t, err)

	_, ok, _ := kv.Get(ctx, storage.ProductsCacheKey)
	assert.False(t, ok, "failed fetch must not populate the cache")
}

func TestCache_NetworkOnly(t *testing.T) {
	api := newFakeAPI(t)
	kv := storage.NewMemory()
	cache := NewCache(newTestClient(t, api), kv, nil)
	ctx := context.Background()

	_, err := cache.NetworkOnly(ctx)
	require.NoError(t, err)
	_, err = cache.NetworkOnly(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), api.list.Load())
	_, ok, _ := kv.Get(ctx, storage.ProductsCacheKey)
	assert.False(t, ok, "network-only must not write the cache")
}

// recordingDispatcher records every dispatched action.
type recordingDispatcher struct {
	actions []action.Action
}

func (r *recordingDispatcher) Dispatch(_ context.Context, a action.Action) error {
	r.actions = append(r.actions, a)
	return nil
}

func TestLoader_Load(t *testing.T) {
	api := newFakeAPI(t)
	d := &recordingDispatcher{}
	loader := NewLoader(NewCache(newTestClient(t, api), storage.NewMemory(), nil), d)

	require.NoError(t, loader.Load(context.Background()))

	require.Len(t, d.actions, 3)
	assert.Equal(t, action.SetLoading{Loading: true}, d.actions[0])
	loaded, ok := d.actions[1].(action.LoadProducts)
	require.True(t, ok)
	assert.Len(t, loaded.Products, 3)
	assert.Equal(t, action.SetLoading{Loading: false}, d.actions[2])
}

func TestLoader_LoadFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.status.Store(http.StatusBadGateway)
	d := &recordingDispatcher{}
	loader := NewLoader(NewCache(newTestClient(t, api), storage.NewMemory(), nil), d)

	err := loader.Load(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatusError(err, http.StatusBadGateway))

	require.Len(t, d.actions, 3)
	assert.Equal(t, action.SetLoading{Loading: true}, d.actions[0])
	setErr, ok := d.actions[1].(action.SetError)
	require.True(t, ok)
	require.NotNil(t, setErr.Message)
	assert.Equal(t, "No se pudieron cargar los productos.", *setErr.Message)
	assert.Equal(t, action.SetLoading{Loading: false}, d.actions[2])
}

func TestLoader_Reload(t *testing.T) {
	api := newFakeAPI(t)
	kv := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.ProductsCacheKey, `[]`))

	loader := NewLoader(NewCache(newTestClient(t, api), kv, nil), &recordingDispatcher{})
	require.NoError(t, loader.Reload(ctx))

	assert.Equal(t, int32(1), api.list.Load())
	stored, _, _ := kv.Get(ctx, storage.ProductsCacheKey)
	assert.Equal(t, productsBody, stored)
}

func TestLoader_Detail(t *testing.T) {
	api := newFakeAPI(t)
	loader := NewLoader(NewCache(newTestClient(t, api), storage.NewMemory(), nil), &recordingDispatcher{})
	ctx := context.Background()

	st := model.NewState()
	st.Products = []model.Product{{ID: 1, Title: "Loaded"}}

	p, err := loader.Detail(ctx, st, 1)
	require.NoError(t, err)
	assert.Equal(t, "Loaded", p.Title, "loaded products are used before the network")

	p, err = loader.Detail(ctx, st, 5)
	require.NoError(t, err)
	assert.Equal(t, "Bracelet", p.Title)

	_, err = loader.Detail(ctx, st, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
