package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/catalog"
)

// ProductsOptions holds flags for the products command.
type ProductsOptions struct {
	*RootOptions
	Filter  string
	Refresh bool
}

// NewProductsCommand creates the products command.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		Long: `List the product catalog.

The catalog is read from the products cache when present and fetched from
the products API otherwise. --refresh always fetches and rewrites the cache.

Filters are expressions over id, title, price, description, category and
image.

Example:
  storefront products
  storefront products --filter 'price < 20 && category == "jewelery"'
  storefront products --refresh --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProducts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter expression")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the cache and refetch")

	return cmd
}

func runProducts(opts *ProductsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	var filter *catalog.Filter
	if opts.Filter != "" {
		var err error
		if filter, err = catalog.CompileFilter(opts.Filter); err != nil {
			return f.Fail(ExitCommandError, ErrCodeFilter, "invalid filter", err)
		}
	}

	app, err := openApp(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer app.Close()
	app.bind(app.Dispatcher)

	load := app.Loader.Load
	if opts.Refresh {
		load = app.Loader.Reload
	}
	if err := load(ctx); err != nil {
		return f.Fail(ExitFailure, ErrCodeCatalog, catalog.LoadErrorMessage, err)
	}

	products := app.Store.State().Products
	if filter != nil {
		if products, err = filter.Apply(products); err != nil {
			return f.Fail(ExitCommandError, ErrCodeFilter, "invalid filter", err)
		}
	}

	f.VerboseLog("%d product(s)", len(products))
	return f.Success(productsResult{
		Products: products,
		Filter:   opts.Filter,
		locale:   app.Config.Language(),
	})
}

// NewProductCommand creates the product command.
func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Long: `Show one product.

The product is taken from the cached catalog when present, otherwise it is
fetched from the products API.

Example:
  storefront product 5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProduct(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runProduct(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	id, err := parseID(arg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeArgs, "invalid product id", err)
	}

	app, err := openApp(ctx, opts, f)
	if err != nil {
		return err
	}
	defer app.Close()
	app.bind(app.Dispatcher)

	p, err := app.lookupProduct(ctx, id)
	if err != nil {
		return failProductLookup(f, id, err)
	}
	return f.Success(p)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", arg)
	}
	return id, nil
}
