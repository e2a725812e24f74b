package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/roach88/storefront/internal/checkout"
	"github.com/roach88/storefront/internal/model"
)

func price(tag language.Tag, p float64) string {
	return checkout.FormatPrice(tag, decimal.NewFromFloat(p))
}

// productsResult is the output of `storefront products`.
type productsResult struct {
	Products []model.Product `json:"products"`
	Filter   string          `json:"filter,omitempty"`

	locale language.Tag
}

func (r productsResult) Text() string {
	var b strings.Builder
	if len(r.Products) == 0 {
		b.WriteString("No products.\n")
		return b.String()
	}
	for _, p := range r.Products {
		fmt.Fprintf(&b, "%4d  %-40s %12s  %s\n", p.ID, p.Title, price(r.locale, p.Price), p.Category)
	}
	return b.String()
}

// productResult is the output of `storefront product`.
type productResult struct {
	model.Product

	locale language.Tag
}

func (r productResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", r.ID, r.Title)
	fmt.Fprintf(&b, "Price:    %s\n", price(r.locale, r.Price))
	fmt.Fprintf(&b, "Category: %s\n", r.Category)
	fmt.Fprintf(&b, "Image:    %s\n", r.Image)
	if r.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Description)
	}
	return b.String()
}

// cartResult is the output of every cart command.
type cartResult struct {
	Items []model.CartItem `json:"items"`
	Count int              `json:"count"`
	Total decimal.Decimal  `json:"total"`

	locale language.Tag
}

func newCartResult(st model.State, tag language.Tag) cartResult {
	return cartResult{
		Items:  st.Cart,
		Count:  st.CartCount(),
		Total:  st.CartTotal(),
		locale: tag,
	}
}

func (r cartResult) Text() string {
	var b strings.Builder
	if len(r.Items) == 0 {
		b.WriteString("Cart is empty.\n")
		return b.String()
	}
	for _, it := range r.Items {
		fmt.Fprintf(&b, "%4d  %-40s %3d x %12s\n", it.ID, it.Title, it.Quantity, price(r.locale, it.Price))
	}
	fmt.Fprintf(&b, "Items: %d\n", r.Count)
	fmt.Fprintf(&b, "Total: %s\n", checkout.FormatPrice(r.locale, r.Total))
	return b.String()
}

// checkoutResult is the output of `storefront checkout`.
type checkoutResult struct {
	Message string           `json:"message"`
	Receipt checkout.Receipt `json:"receipt"`

	locale language.Tag
}

func (r checkoutResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Message)
	fmt.Fprintf(&b, "Order: %s\n", r.Receipt.OrderID)
	fmt.Fprintf(&b, "Items: %d\n", r.Receipt.ItemCount)
	fmt.Fprintf(&b, "Total: %s\n", checkout.FormatPrice(r.locale, r.Receipt.Total))
	return b.String()
}
