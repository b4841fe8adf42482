package cart

import (
	"fmt"

	"github.com/medatechnology/goutil/medaerror"
)

var (
	// ErrUnknownProduct is returned when the product id does not exist in
	// the catalog.
	ErrUnknownProduct medaerror.MedaError = medaerror.MedaError{Message: "unknown product"}
	// ErrUnavailable is returned when the product exists but is not for
	// sale right now.
	ErrUnavailable medaerror.MedaError = medaerror.MedaError{Message: "product not available"}
)

// OutOfStockError reports an add that would push the line quantity past the
// product's stock. The cart is left unchanged when this is returned.
type OutOfStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}
