package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/pkg/api"
)

// Item is one line of the cart. Quantity is always at least 1.
type Item struct {
	UnitPrice decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the ordered list of items, in insertion order.
type Cart []Item

// Total returns the sum of all subtotals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Count returns the number of units across all items.
func (c Cart) Count() int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}

// Index returns the position of productID or -1.
func (c Cart) Index(productID int64) int {
	return slices.IndexFunc(c, func(it Item) bool { return it.ProductID == productID })
}

// OrderRequest converts the cart into a checkout body.
func (c Cart) OrderRequest() api.OrderRequest {
	lines := make([]api.OrderLine, len(c))
	for i, it := range c {
		lines[i] = api.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return api.OrderRequest{Items: lines}
}

// normalize merges duplicate products and drops non-positive quantities.
func normalize(in Cart) Cart {
	out := make(Cart, 0, len(in))
	for _, it := range in {
		if it.Quantity < 1 {
			continue
		}
		if i := out.Index(it.ProductID); i >= 0 {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
	}
	return out
}
