package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/checkout"
	"github.com/roach88/storefront/internal/config"
	"github.com/roach88/storefront/internal/dispatcher"
	"github.com/roach88/storefront/internal/metrics"
	"github.com/roach88/storefront/internal/state"
	"github.com/roach88/storefront/internal/storage"
)

// App is the wired storefront: storage, dispatcher, store and the services
// that dispatch into it.
type App struct {
	Config     *config.Config
	KV         storage.KV
	Dispatcher *dispatcher.Dispatcher
	Store      *state.Store
	Metrics    *metrics.Metrics
	Cache      *catalog.Cache

	// Set by bind.
	Creators action.Creators
	Cart     *state.Cart
	Loader   *catalog.Loader
	Checkout *checkout.Service
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadOptional(config.DefaultFileName)
	}
	if err != nil {
		return nil, err
	}

	if opts.Database != "" {
		cfg.Storage.Backend = config.BackendSQLite
		cfg.Storage.Path = opts.Database
	}
	if opts.APIBaseURL != "" {
		cfg.APIBaseURL = opts.APIBaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStorage opens the configured KV backend.
func openStorage(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return storage.OpenSQLite(cfg.Storage.Path)
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendS3:
		s3cfg := storage.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Prefix:    cfg.Storage.S3.Prefix,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			PathStyle: cfg.Storage.S3.PathStyle,
		}
		client, err := storage.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3(client, s3cfg.Bucket, s3cfg.Prefix), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// metricsOptions maps the metrics config onto collector options. The
// registry also carries the Go runtime and process collectors.
func metricsOptions(c config.MetricsConfig) []metrics.Option {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []metrics.Option{
		metrics.WithNamespace(c.Namespace),
		metrics.WithRegistry(reg),
	}
	if len(c.Buckets) > 0 {
		opts = append(opts, metrics.WithBuckets(c.Buckets))
	}
	return opts
}

// openApp loads config, opens storage and builds the store. Callers must
// call bind before using the dispatching services, and Close when done.
func openApp(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	kv, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStorage, "failed to open storage", err)
	}
	slog.Debug("storage ready", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)

	m := metrics.New(metricsOptions(cfg.Metrics)...)
	d := dispatcher.New()
	st := state.New(ctx, d, kv, state.WithObserver(m))

	client, err := catalog.NewClient(cfg.APIBaseURL,
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		catalog.WithFetchObserver(m),
	)
	if err != nil {
		_ = kv.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to build catalog client", err)
	}

	return &App{
		Config:     cfg,
		KV:         kv,
		Dispatcher: d,
		Store:      st,
		Metrics:    m,
		Cache:      catalog.NewCache(client, kv, m),
	}, nil
}

// bind builds the dispatching services on top of target.
func (a *App) bind(target action.Dispatcher, opts ...checkout.Option) {
	a.Creators = action.NewCreators(target)
	a.Cart = state.NewCart(a.Store, target)
	a.Loader = catalog.NewLoader(a.Cache, target)

	opts = append([]checkout.Option{
		checkout.WithDelays(a.Config.Checkout.SubmitDelay, a.Config.Checkout.SuccessDelay),
	}, opts...)
	a.Checkout = checkout.NewService(a.Store, target, opts...)
}

// Close releases storage.
func (a *App) Close() {
	if err := a.KV.Close(); err != nil {
		slog.Error("error closing storage", "error", err)
	}
}

// lookupProduct finds a product for cart commands: the catalog is loaded
// cache-first into the store, then the product is taken from it or fetched
// directly.
func (a *App) lookupProduct(ctx context.Context, id int) (productResult, error) {
	if err := a.Loader.Load(ctx); err != nil {
		slog.Debug("catalog unavailable, fetching product directly", "id", id, "error", err)
	}
	p, err := a.Loader.Detail(ctx, a.Store.State(), id)
	if err != nil {
		return productResult{}, err
	}
	return productResult{Product: p, locale: a.Config.Language()}, nil
}

// newFormatter builds the formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns cmd's context or Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// failProductLookup maps product lookup errors to CLI errors.
func failProductLookup(f *OutputFormatter, id int, err error) error {
	if errors.Is(err, catalog.ErrNotFound) || catalog.IsStatusError(err, http.StatusNotFound) {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("%s %d", catalog.DetailErrorMessage, id), err)
	}
	return f.Fail(ExitFailure, ErrCodeCatalog, catalog.DetailErrorMessage, err)
}
