package order

import (
	"github.com/medatechnology/storefront/catalog"
)

// Tx is the set of operations the engine runs inside one atomic unit.
// Either everything in the function passed to WithinTransaction lands or
// nothing does.
type Tx interface {
	// Product re-reads a product inside the transaction so checkout
	// validates against current stock, not the cart's snapshot.
	Product(id string) (catalog.Product, error)
	// Order loads an order header with its items.
	Order(id string) (Order, error)

	InsertOrder(o Order) error
	InsertItems(items []OrderItem) error

	// DecrementStock atomically takes qty units off the product's stock,
	// failing with ErrStockConflict when fewer than qty remain. This is the
	// guard that keeps stock from going negative under concurrent checkouts;
	// a conflict only detectable at commit time also surfaces as
	// ErrStockConflict, from WithinTransaction itself.
	DecrementStock(productID string, qty int) error
	// RestoreStock gives qty units back for one of the order's lines when
	// the order is cancelled. The write is tied to the order still being in
	// a cancellable status, so racing cancels can never restore stock twice.
	// Call it before SetStatus flips the order to cancelled.
	RestoreStock(orderID, productID string, qty int) error

	// SetStatus moves the order to the given status only while its current
	// status is one of from (at least one must be given). A miss reports
	// ErrOrderNotFound for unknown ids and InvalidTransitionError when a
	// concurrent writer got there first.
	SetStatus(orderID string, to Status, from ...Status) error
}

// Repository persists orders. WithinTransaction runs fn inside a
// transaction, committing when fn returns nil and rolling back otherwise.
type Repository interface {
	WithinTransaction(fn func(tx Tx) error) error

	Order(id string) (Order, error)
	OrdersByUser(userID string) ([]Order, error)
	// SetStatus is the same compare-and-set as Tx.SetStatus, for single
	// status moves that need no other writes.
	SetStatus(orderID string, to Status, from ...Status) error
	SetPaid(orderID string, paid bool) error
}
