package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/roach88/storefront/internal/model"
	"github.com/roach88/storefront/internal/storage"
)

// loadCart reads the persisted cart. Any failure is logged and reported as
// ok=false so that the store keeps its empty default cart.
func loadCart(ctx context.Context, kv storage.KV) ([]model.CartItem, bool) {
	data, ok, err := kv.Get(ctx, storage.CartKey)
	if err != nil {
		slog.Error("error loading cart", "key", storage.CartKey, "error", err)
		return nil, false
	}
	if !ok || data == "" {
		return nil, false
	}

	if !gjson.Valid(data) || !gjson.Parse(data).IsArray() {
		slog.Error("error loading cart", "key", storage.CartKey, "error", "stored value is not a JSON array")
		return nil, false
	}

	cart := []model.CartItem{}
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		slog.Error("error loading cart", "key", storage.CartKey, "error", err)
		return nil, false
	}

	normalized := normalizeCart(cart)
	if len(normalized) != len(cart) {
		slog.Warn("persisted cart repaired", "stored_items", len(cart), "items", len(normalized))
	}

	slog.Debug("cart restored", "items", len(normalized))
	return normalized, true
}

// normalizeCart enforces the cart invariants on externally stored data:
// lines with Quantity < 1 are dropped and duplicate product IDs are merged
// into the first line, keeping insertion order.
func normalizeCart(cart []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, 0, len(cart))
	for _, item := range cart {
		if item.Quantity < 1 {
			continue
		}
		if i := indexOf(out, item.ID); i >= 0 {
			out[i].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}

// saveCart writes the full cart under storage.CartKey.
func saveCart(ctx context.Context, kv storage.KV, cart []model.CartItem) error {
	if cart == nil {
		cart = []model.CartItem{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	if err := kv.Set(ctx, storage.CartKey, string(data)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
