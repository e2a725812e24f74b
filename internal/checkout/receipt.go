package checkout

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/storefront/internal/model"
)

// SuccessMessage is shown once an order is placed.
const SuccessMessage = "Todo listoo! relajate que ya casi llega :D"

// Receipt describes a placed order.
type Receipt struct {
	OrderID   string           `json:"orderId"`
	Customer  Form             `json:"customer"`
	Items     []model.CartItem `json:"items"`
	ItemCount int              `json:"itemCount"`
	Total     decimal.Decimal  `json:"total"`
	PlacedAt  time.Time        `json:"placedAt"`
}

// FormatPrice renders an amount as "$" plus two decimals, grouped and
// punctuated for tag.
func FormatPrice(tag language.Tag, amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return message.NewPrinter(tag).Sprintf("$%.2f", f)
}
