package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront HTTP API",
		Long: `Serve the storefront HTTP API.

All requests dispatch through a single-writer engine, so concurrent clients
are applied one action at a time. State changes stream over
/api/state/stream; Prometheus metrics are served on /metrics.

Example:
  storefront serve --addr :8080
  storefront serve --db /var/lib/storefront.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	configureLogging(cmd, opts.Verbose, slog.LevelInfo)
	f := newFormatter(opts.RootOptions, cmd)

	ctx, stop := signalContext(commandContext(cmd))
	defer stop()

	app, err := openApp(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer app.Close()

	eng := engine.New(app.Dispatcher, engine.WithObserver(app.Metrics))
	app.bind(eng)

	// The engine outlives ctx so in-flight requests finish during shutdown.
	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Run(context.WithoutCancel(ctx))
	}()

	if *app.Config.Server.LoadOnStart {
		go func() {
			if err := app.Loader.Load(ctx); err != nil {
				slog.Warn("initial catalog load failed", "error", err)
			}
		}()
	}

	addr := opts.Addr
	if addr == "" {
		addr = app.Config.Server.Addr
	}

	srv := server.New(server.Deps{
		Store:      app.Store,
		Dispatcher: eng,
		Loader:     app.Loader,
		Checkout:   app.Checkout,
		Metrics:    app.Metrics,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	serveErr := srv.ListenAndServe(ctx, addr, app.Config.Server.ShutdownTimeout)

	// Drain queued actions before closing storage.
	eng.Stop()
	if err := <-engineErr; err != nil {
		slog.Error("engine error", "error", err)
	}

	if serveErr != nil {
		return f.Fail(ExitFailure, ErrCodeServer, "server error", serveErr)
	}
	slog.Info("server stopped gracefully")
	return nil
}
