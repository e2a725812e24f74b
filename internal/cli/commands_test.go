package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const testCatalog = `[
  {"id":1,"title":"Backpack","price":109.95,"description":"Fits 15 inch laptops","category":"men's clothing","image":"https://example.com/1.jpg"},
  {"id":5,"title":"Bracelet","price":695,"description":"Dragon station chain","category":"jewelery","image":"https://example.com/5.jpg"},
  {"id":6,"title":"Petite Micropave","price":9.99,"description":"Gold ring","category":"jewelery","image":"https://example.com/6.jpg"}
]`

// testEnv is a products API plus a private database.
type testEnv struct {
	api    *httptest.Server
	db     string
	config string
	lists  atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}

	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, _ *http.Request) {
		env.lists.Add(1)
		_, _ = w.Write([]byte(testCatalog))
	})
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range gjson.Parse(testCatalog).Array() {
			if p.Get("id").String() == chi.URLParam(r, "id") {
				_, _ = w.Write([]byte(p.Raw))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	env.api = httptest.NewServer(r)
	t.Cleanup(env.api.Close)

	dir := t.TempDir()
	env.db = filepath.Join(dir, "storefront.db")
	env.config = filepath.Join(dir, "storefront.yaml")
	cfg := "checkout:\n  submit_delay: 1ms\n  success_delay: 1ms\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o644))
	return env
}

// run executes the CLI with JSON output and returns the parsed response.
func (env *testEnv) run(t *testing.T, args ...string) (gjson.Result, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{
		"--format", "json",
		"--config", env.config,
		"--db", env.db,
		"--api", env.api.URL,
	}, args...))

	err := cmd.Execute()
	require.True(t, gjson.Valid(out.String()), "output is not JSON: %q", out.String())
	return gjson.Parse(out.String()), err
}

func TestProductsCommand(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.run(t, "products")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Get("status").String())
	assert.Equal(t, int64(3), resp.Get("data.products.#").Int())

	resp, err = env.run(t, "products", "--filter", `category == "jewelery" && price < 20`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Petite Micropave"}, stringsOf(resp.Get("data.products.#.title")))

	assert.Equal(t, int32(1), env.lists.Load(), "second run is served from the cache")

	_, err = env.run(t, "products", "--refresh")
	require.NoError(t, err)
	assert.Equal(t, int32(2), env.lists.Load())
}

func TestProductsCommand_InvalidFilter(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.run(t, "products", "--filter", "price <")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeFilter, resp.Get("error.code").String())
}

func TestProductCommand(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.run(t, "product", "5")
	require.NoError(t, err)
	assert.Equal(t, "Bracelet", resp.Get("data.title").String())

	resp, err = env.run(t, "product", "99")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, resp.Get("error.code").String())

	_, err = env.run(t, "product", "five")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCartCommands_PersistAcrossRuns(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.run(t, "cart")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Get("data.items.#").Int())

	_, err = env.run(t, "cart", "add", "6", "--qty", "2")
	require.NoError(t, err)
	_, err = env.run(t, "cart", "add", "5")
	require.NoError(t, err)

	resp, err = env.run(t, "cart")
	require.NoError(t, err)
	assert.Equal(t, []string{"6", "5"}, stringsOf(resp.Get("data.items.#.id")))
	assert.Equal(t, int64(3), resp.Get("data.count").Int())
	assert.Equal(t, "714.98", resp.Get("data.total").String())

	resp, err = env.run(t, "cart", "increase", "6")
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Get(`data.items.#(id==6).quantity`).Int())

	resp, err = env.run(t, "cart", "decrease", "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, stringsOf(resp.Get("data.items.#.id")))

	resp, err = env.run(t, "cart", "update", "6", "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.Get("data.count").Int())

	resp, err = env.run(t, "cart", "clear")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Get("data.items.#").Int())

	resp, err = env.run(t, "cart")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Get("data.count").Int())
}

func TestCartUpdate_NegativeQuantityAfterDoubleDash(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "cart", "add", "6", "--qty", "2")
	require.NoError(t, err)
	_, err = env.run(t, "cart", "add", "5")
	require.NoError(t, err)

	resp, err := env.run(t, "cart", "update", "6", "--", "-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, stringsOf(resp.Get("data.items.#.id")))
	assert.Equal(t, int64(1), resp.Get("data.count").Int())

	resp, err = env.run(t, "cart", "update", "5", "0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Get("data.items.#").Int())
}

func TestCartCommands_Errors(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.run(t, "cart", "increase", "6")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeCart, resp.Get("error.code").String())

	resp, err = env.run(t, "cart", "add", "6", "--qty", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeArgs, resp.Get("error.code").String())

	resp, err = env.run(t, "cart", "add", "99")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, resp.Get("error.code").String())
}

func TestCheckoutCommand(t *testing.T) {
	env := newTestEnv(t)
	form := []string{"checkout", "--name", "Ana", "--email", "ana@example.com", "--address", "Calle 1"}

	resp, err := env.run(t, form...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeEmptyCart, resp.Get("error.code").String())

	_, err = env.run(t, "cart", "add", "6", "--qty", "2")
	require.NoError(t, err)

	resp, err = env.run(t, "checkout", "--name", "Ana", "--email", "  ")
	require.Error(t, err)
	assert.Equal(t, ErrCodeForm, resp.Get("error.code").String())

	resp, err = env.run(t, form...)
	require.NoError(t, err)
	assert.Equal(t, "Todo listoo! relajate que ya casi llega :D", resp.Get("data.message").String())
	assert.NotEmpty(t, resp.Get("data.receipt.orderId").String())
	assert.Equal(t, int64(2), resp.Get("data.receipt.itemCount").Int())
	assert.Equal(t, "19.98", resp.Get("data.receipt.total").String())
	assert.Equal(t, "Ana", resp.Get("data.receipt.customer.name").String())

	resp, err = env.run(t, "cart")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Get("data.count").Int())
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.config, []byte("colour: blue\n"), 0o644))

	resp, err := env.run(t, "cart")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeConfig, resp.Get("error.code").String())
}

func TestCartCommand_Text(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "cart", "add", "6", "--qty", "2")
	require.NoError(t, err)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", env.config, "--db", env.db, "--api", env.api.URL, "cart"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Petite Micropave")
	assert.Contains(t, out.String(), "Items: 2")
	assert.Contains(t, out.String(), "Total: $19,98")
}

func stringsOf(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}
