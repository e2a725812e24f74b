package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/checkout"
	"github.com/roach88/storefront/internal/metrics"
	"github.com/roach88/storefront/internal/state"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Store *state.Store

	// Dispatcher receives every action. Use an engine.Engine so concurrent
	// requests are serialized.
	Dispatcher action.Dispatcher

	Loader   *catalog.Loader
	Checkout *checkout.Service

	// Metrics is optional; /metrics is mounted only when set.
	Metrics *metrics.Metrics
}

// Server is the storefront HTTP API.
type Server struct {
	deps     Deps
	creators action.Creators
	cart     *state.Cart
	router   chi.Router
	upgrader websocket.Upgrader
}

// New builds the router.
func New(deps Deps) *Server {
	s := &Server{
		deps:     deps,
		creators: action.NewCreators(deps.Dispatcher),
		cart:     state.NewCart(deps.Store, deps.Dispatcher),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/state/stream", s.handleStream)

		r.Get("/products", s.handleProducts)
		r.Get("/products/{id}", s.handleProduct)
		r.Post("/products/reload", s.handleReload)

		r.Post("/actions", s.handleAction)

		r.Post("/cart/items", s.handleAddItem)
		r.Patch("/cart/items/{id}", s.handleUpdateItem)
		r.Post("/cart/items/{id}/increase", s.handleIncrease)
		r.Post("/cart/items/{id}/decrease", s.handleDecrease)
		r.Delete("/cart/items/{id}", s.handleRemoveItem)
		r.Delete("/cart", s.handleClearCart)

		r.Post("/checkout", s.handleCheckout)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	slog.Info("server stopping", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request with slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
