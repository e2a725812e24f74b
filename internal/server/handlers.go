package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/storefront/internal/action"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/checkout"
	"github.com/roach88/storefront/internal/dispatcher"
	"github.com/roach88/storefront/internal/state"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDispatchError maps a dispatch failure to a status code.
func writeDispatchError(w http.ResponseWriter, err error) {
	if dispatcher.IsDispatchInProgress(err) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	slog.Error("dispatch failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func productID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Store.State())
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products := s.deps.Store.State().Products

	if expression := r.URL.Query().Get("filter"); expression != "" {
		f, err := catalog.CompileFilter(expression)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if products, err = f.Apply(products); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := s.deps.Loader.Detail(r.Context(), s.deps.Store.State(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, p)
	case errors.Is(err, catalog.ErrNotFound) || catalog.IsStatusError(err, http.StatusNotFound):
		writeError(w, http.StatusNotFound, catalog.DetailErrorMessage)
	default:
		writeError(w, http.StatusBadGateway, catalog.DetailErrorMessage)
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Loader.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, s.deps.Store.State())
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.State())
}

// handleAction dispatches a wire-format action. Malformed actions are
// dropped like any other malformed action: 202 with the unchanged state.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	a, err := action.Decode(raw)
	if err != nil {
		slog.Debug("dropping malformed wire action", "error", err)
		writeJSON(w, http.StatusAccepted, s.deps.Store.State())
		return
	}

	if err := s.deps.Dispatcher.Dispatch(r.Context(), a); err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.State())
}

type addItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	p, err := s.deps.Loader.Detail(r.Context(), s.deps.Store.State(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, catalog.DetailErrorMessage)
			return
		}
		writeError(w, http.StatusBadGateway, catalog.DetailErrorMessage)
		return
	}

	if err := s.creators.AddToCart(r.Context(), p, req.Quantity); err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.State().Cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.creators.UpdateQuantity(r.Context(), id, req.Quantity); err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.State().Cart)
}

func (s *Server) handleIncrease(w http.ResponseWriter, r *http.Request) {
	s.cartGesture(w, r, s.cart.Increase)
}

func (s *Server) handleDecrease(w http.ResponseWriter, r *http.Request) {
	s.cartGesture(w, r, s.cart.Decrease)
}

func (s *Server) cartGesture(w http.ResponseWriter, r *http.Request, gesture func(context.Context, int) error) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := gesture(r.Context(), id); err != nil {
		if errors.Is(err, state.ErrNotInCart) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.State().Cart)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := s.creators.RemoveFromCart(r.Context(), id); err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.State().Cart)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.creators.ClearCart(r.Context()); err != nil {
		writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Store.State().Cart)
}

// checkoutResponse is the body of a placed order.
type checkoutResponse struct {
	Message string           `json:"message"`
	Receipt checkout.Receipt `json:"receipt"`
}

// handleCheckout blocks for the checkout delays; a client disconnect
// cancels the order and leaves the cart untouched.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if !decodeBody(w, r, &form) {
		return
	}

	receipt, err := s.deps.Checkout.Submit(r.Context(), form)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, checkoutResponse{Message: checkout.SuccessMessage, Receipt: receipt})
	case errors.Is(err, checkout.ErrIncompleteForm):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled):
		slog.Info("checkout abandoned by client")
	default:
		writeDispatchError(w, err)
	}
}
