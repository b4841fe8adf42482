// Package cart implements the session-backed shopping cart: a small value
// object serialized as a JSON blob into a BlobStore, plus the Service that
// keeps every line consistent with the live catalog.
package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one cart entry. Name, Price and Image are snapshots taken when the
// line was added, so the cart renders without touching the catalog; the
// Service refreshes them against the catalog on every read.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Subtotal is price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the blob payload: lines keyed by product id, so a product appears
// at most once and adds of the same product fold into one line.
type Cart struct {
	Lines map[string]Line `json:"lines"`
}

// NewCart returns an empty cart ready for use.
func NewCart() Cart {
	return Cart{Lines: make(map[string]Line)}
}

func (c *Cart) set(l Line) {
	if c.Lines == nil {
		c.Lines = make(map[string]Line)
	}
	c.Lines[l.ProductID] = l
}

func (c *Cart) remove(productID string) {
	delete(c.Lines, productID)
}

// TotalItems is the sum of quantities across all lines.
func (c Cart) TotalItems() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the exact sum of all line subtotals.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
