package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/checkout"
)

// CheckoutOptions holds flags for the checkout command.
type CheckoutOptions struct {
	*RootOptions
	Form checkout.Form

	// Clock and IDs override the checkout clock and order IDs (for testing).
	Clock checkout.Clock
	IDs   checkout.IDGenerator
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Long: `Place an order for the current cart.

Processing takes a moment; the cart is cleared once the order is confirmed.
Interrupting (Ctrl-C) before then leaves the cart untouched.

Example:
  storefront checkout --name "Ana" --email ana@example.com --address "Calle 1"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Form.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&opts.Form.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&opts.Form.Address, "address", "", "shipping address")

	return cmd
}

func runCheckout(opts *CheckoutOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	ctx, stop := signalContext(commandContext(cmd))
	defer stop()

	app, err := openApp(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer app.Close()

	var extra []checkout.Option
	if opts.Clock != nil {
		extra = append(extra, checkout.WithClock(opts.Clock))
	}
	if opts.IDs != nil {
		extra = append(extra, checkout.WithIDGenerator(opts.IDs))
	}
	extra = append(extra, checkout.WithOnPlaced(func(r checkout.Receipt) {
		f.VerboseLog("order %s placed, confirming", r.OrderID)
	}))
	app.bind(app.Dispatcher, extra...)

	f.VerboseLog("processing order")
	receipt, err := app.Checkout.Submit(ctx, opts.Form)
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrIncompleteForm):
		return f.Fail(ExitFailure, ErrCodeForm, err.Error(), err)
	case errors.Is(err, checkout.ErrEmptyCart):
		return f.Fail(ExitFailure, ErrCodeEmptyCart, "cart is empty", err)
	case errors.Is(err, context.Canceled):
		return f.Fail(ExitFailure, ErrCodeCheckout, "checkout interrupted, cart kept", err)
	default:
		return f.Fail(ExitFailure, ErrCodeCheckout, "checkout failed", err)
	}

	return f.Success(checkoutResult{
		Message: checkout.SuccessMessage,
		Receipt: receipt,
		locale:  app.Config.Language(),
	})
}
