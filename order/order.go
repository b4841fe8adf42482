// Package order turns carts into orders. The Engine owns the checkout
// algorithm, stock reconciliation and the order status machine; persistence
// goes through the Repository contract implemented by sqlstore and memstore.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Orders move forward from pending to
// processing to completed, and can be cancelled from any non-terminal state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether an order in this status can never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Shipping is the delivery information captured at checkout.
type Shipping struct {
	FirstName  string `json:"first_name"  db:"first_name"`
	LastName   string `json:"last_name"   db:"last_name"`
	Email      string `json:"email"       db:"email"`
	Address    string `json:"address"     db:"address"`
	PostalCode string `json:"postal_code" db:"postal_code"`
	City       string `json:"city"        db:"city"`
}

// Order is one placed order. Items carry the price each line was sold at;
// the header never stores a total, Total derives it.
type Order struct {
	ID       string    `json:"id"      db:"id"`
	UserID   string    `json:"user_id" db:"user_id"`
	Shipping Shipping  `json:"shipping"`
	Paid     bool      `json:"paid"    db:"paid"`
	Status   Status    `json:"status"  db:"status"`
	Created  time.Time `json:"created" db:"created"`
	Updated  time.Time `json:"updated" db:"updated"`
	Items    []OrderItem `json:"items"`
}

func (o Order) TableName() string {
	return "orders"
}

// Total is the exact sum of every item's price times quantity.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderItem is one line of a placed order. Price is the per-unit price the
// buyer saw in the cart, frozen at checkout; later catalog price changes
// never touch placed orders.
type OrderItem struct {
	ID        string          `json:"id"         db:"id"`
	OrderID   string          `json:"order_id"   db:"order_id"`
	ProductID string          `json:"product_id" db:"product_id"`
	Name      string          `json:"name"       db:"name"`
	Price     decimal.Decimal `json:"price"      db:"price"`
	Quantity  int             `json:"quantity"   db:"quantity"`
}

func (i OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is price times quantity for this item.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
