package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/state"
)

// NewCartCommand creates the cart command and its subcommands.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Long: `Show or change the cart.

The cart is persisted after every change and restored on the next run.

Example:
  storefront cart
  storefront cart add 5 --qty 2
  storefront cart decrease 5
  storefront cart clear`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCart(rootOpts, cmd, nil)
		},
	}

	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartItemCommand(rootOpts, "remove", "Remove a product from the cart",
		func(ctx context.Context, app *App, id int) error {
			return app.Creators.RemoveFromCart(ctx, id)
		}))
	cmd.AddCommand(newCartItemCommand(rootOpts, "increase", "Add one to a product's quantity",
		func(ctx context.Context, app *App, id int) error {
			return app.Cart.Increase(ctx, id)
		}))
	cmd.AddCommand(newCartItemCommand(rootOpts, "decrease", "Subtract one from a product's quantity (removes at 1)",
		func(ctx context.Context, app *App, id int) error {
			return app.Cart.Decrease(ctx, id)
		}))
	cmd.AddCommand(newCartUpdateCommand(rootOpts))
	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Empty the cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCart(rootOpts, cmd, func(ctx context.Context, app *App) error {
				return app.Creators.ClearCart(ctx)
			})
		},
	})

	return cmd
}

// runCart opens the app, applies change (if any) and prints the cart.
func runCart(opts *RootOptions, cmd *cobra.Command, change func(context.Context, *App) error) error {
	f := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	app, err := openApp(ctx, opts, f)
	if err != nil {
		return err
	}
	defer app.Close()
	app.bind(app.Dispatcher)

	if change != nil {
		if err := change(ctx, app); err != nil {
			return failCart(f, err)
		}
	}
	return f.Success(newCartResult(app.Store.State(), app.Config.Language()))
}

// failCart maps cart errors that were not already reported.
func failCart(f *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, state.ErrNotInCart) {
		return f.Fail(ExitFailure, ErrCodeCart, "product not in cart", err)
	}
	return f.Fail(ExitFailure, ErrCodeCart, "cart update failed", err)
}

func newCartAddCommand(rootOpts *RootOptions) *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:           "add <id>",
		Short:         "Add a product to the cart",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			id, err := parseID(args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid product id", err)
			}
			if qty < 1 {
				return f.Fail(ExitCommandError, ErrCodeArgs, "--qty must be at least 1", nil)
			}
			return runCart(rootOpts, cmd, func(ctx context.Context, app *App) error {
				p, err := app.lookupProduct(ctx, id)
				if err != nil {
					return failProductLookup(f, id, err)
				}
				return app.Creators.AddToCart(ctx, p.Product, qty)
			})
		},
	}
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity to add")
	return cmd
}

func newCartItemCommand(rootOpts *RootOptions, name, short string, change func(context.Context, *App, int) error) *cobra.Command {
	return &cobra.Command{
		Use:           name + " <id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(ExitCommandError, ErrCodeArgs, "invalid product id", err)
			}
			return runCart(rootOpts, cmd, func(ctx context.Context, app *App) error {
				return change(ctx, app, id)
			})
		},
	}
}

func newCartUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <qty>",
		Short: "Set a product's quantity (0 or less removes it)",
		Long: `Set a product's quantity. A quantity of 0 or less removes the item.

Negative quantities look like flags; put them after "--".`,
		Example: `  storefront cart update 5 3
  storefront cart update 5 -- -1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			id, err := parseID(args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid product id", err)
			}
			qty, err := parseID(args[1])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid quantity", err)
			}
			return runCart(rootOpts, cmd, func(ctx context.Context, app *App) error {
				return app.Creators.UpdateQuantity(ctx, id, qty)
			})
		},
	}
}
