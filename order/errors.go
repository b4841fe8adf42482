package order

import (
	"fmt"
	"strings"

	"github.com/medatechnology/goutil/medaerror"

	"github.com/medatechnology/storefront/cart"
)

var (
	// ErrEmptyCart is returned when checkout starts with no cart lines.
	ErrEmptyCart medaerror.MedaError = medaerror.MedaError{Message: "cart is empty"}
	// ErrNoValidItems is returned when every cart line was skipped during
	// checkout validation, leaving nothing to order.
	ErrNoValidItems medaerror.MedaError = medaerror.MedaError{Message: "no valid items in cart"}
	// ErrOrderNotFound covers both an unknown order id and an order that
	// belongs to someone else, so lookups never reveal which it was.
	ErrOrderNotFound medaerror.MedaError = medaerror.MedaError{Message: "order not found"}
	// ErrStockConflict is returned by Tx.DecrementStock when the product no
	// longer has enough stock, typically because a concurrent checkout took
	// it first.
	ErrStockConflict medaerror.MedaError = medaerror.MedaError{Message: "stock changed concurrently"}
)

// InvalidLine is a cart line skipped during checkout, with the reason.
// Skipped lines do not fail the checkout as long as valid lines remain.
type InvalidLine struct {
	Line   cart.Line `json:"line"`
	Reason string    `json:"reason"`
}

// StockShortage is one product that could not cover the requested quantity
// at checkout time.
type StockShortage struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (s StockShortage) String() string {
	return fmt.Sprintf("%s: requested %d, available %d", s.Name, s.Requested, s.Available)
}

// CheckoutError aborts a checkout because at least one product ran short of
// stock. All shortages found in the cart are collected before failing, so
// the buyer sees every problem at once instead of fixing them one by one.
type CheckoutError struct {
	Shortages []StockShortage
}

func (e *CheckoutError) Error() string {
	if len(e.Shortages) == 0 {
		return "checkout failed"
	}
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = s.String()
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// InvalidTransitionError reports a status change the lifecycle does not
// allow, like cancelling an already cancelled order.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}
