package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medatechnology/storefront/cart"
	"github.com/medatechnology/storefront/catalog"

	store "github.com/medatechnology/storefront"
)

// Engine runs checkout and the order lifecycle on top of a Repository.
type Engine struct {
	repo Repository
	log  store.Logger
}

func NewEngine(repo Repository, log store.Logger) *Engine {
	if log == nil {
		log = store.GetDefaultLogger()
	}
	return &Engine{repo: repo, log: log}
}

// CreateOrder converts cart lines into a placed order inside one
// transaction. Every line is re-validated against the live catalog: lines
// whose product vanished, went off sale or asks for a non-positive quantity
// are skipped and reported back; lines short on stock are collected and the
// whole checkout fails with a CheckoutError naming all of them. Valid lines
// are written at the price frozen in the cart; stock is checked and then
// decremented with the CHECK constraint as the final word, so two concurrent
// checkouts can never oversell — a conflict the transaction only sees at
// commit surfaces as ErrStockConflict. Nothing is persisted unless the order
// as a whole goes through.
func (e *Engine) CreateOrder(userID string, lines []cart.Line, ship Shipping) (Order, []InvalidLine, error) {
	if len(lines) == 0 {
		return Order{}, nil, ErrEmptyCart
	}

	now := time.Now().UTC()
	o := Order{
		ID:       uuid.NewString(),
		UserID:   userID,
		Shipping: ship,
		Status:   StatusPending,
		Created:  now,
		Updated:  now,
	}

	var skipped []InvalidLine
	err := e.repo.WithinTransaction(func(tx Tx) error {
		skipped = skipped[:0]
		var shortages []StockShortage
		var valid []cart.Line

		for _, l := range lines {
			if l.ProductID == "" || l.Name == "" {
				skipped = append(skipped, InvalidLine{Line: l, Reason: "missing product fields"})
				continue
			}
			if l.Quantity <= 0 {
				skipped = append(skipped, InvalidLine{Line: l, Reason: "non-positive quantity"})
				continue
			}
			if !l.Price.IsPositive() {
				skipped = append(skipped, InvalidLine{Line: l, Reason: "non-positive price"})
				continue
			}
			p, err := tx.Product(l.ProductID)
			if errors.Is(err, catalog.ErrProductNotFound) {
				skipped = append(skipped, InvalidLine{Line: l, Reason: "product no longer exists"})
				continue
			}
			if err != nil {
				return err
			}
			if !p.Available {
				skipped = append(skipped, InvalidLine{Line: l, Reason: "product no longer available"})
				continue
			}
			if p.Stock < l.Quantity {
				shortages = append(shortages, StockShortage{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: l.Quantity,
					Available: p.Stock,
				})
				continue
			}
			valid = append(valid, l)
		}

		if len(shortages) > 0 {
			return &CheckoutError{Shortages: shortages}
		}
		if len(valid) == 0 {
			return ErrNoValidItems
		}

		if err := tx.InsertOrder(o); err != nil {
			return err
		}

		items := make([]OrderItem, len(valid))
		for i, l := range valid {
			items[i] = OrderItem{
				ID:        uuid.NewString(),
				OrderID:   o.ID,
				ProductID: l.ProductID,
				Name:      l.Name,
				Price:     l.Price,
				Quantity:  l.Quantity,
			}
		}
		if err := tx.InsertItems(items); err != nil {
			return err
		}

		for _, it := range items {
			err := tx.DecrementStock(it.ProductID, it.Quantity)
			if errors.Is(err, ErrStockConflict) {
				// A concurrent checkout took the stock between our read and
				// the decrement. Report it like any other shortage.
				p, perr := tx.Product(it.ProductID)
				if perr != nil {
					p = catalog.Product{ID: it.ProductID, Name: it.Name}
				}
				return &CheckoutError{Shortages: []StockShortage{{
					ProductID: it.ProductID,
					Name:      it.Name,
					Requested: it.Quantity,
					Available: p.Stock,
				}}}
			}
			if err != nil {
				return err
			}
		}

		o.Items = items
		return nil
	})
	if err != nil {
		return Order{}, skipped, err
	}

	e.log.Info("order placed",
		store.String("order_id", o.ID),
		store.String("user_id", userID),
		store.Int("items", len(o.Items)),
		store.String("total", o.Total().String()))
	return o, skipped, nil
}

// Checkout is CreateOrder fed from a session cart. The stored snapshot
// lines become the order, and on success the cart is cleared; a failed
// clear is only logged, the visitor's next checkout simply retries it.
func (e *Engine) Checkout(ctx context.Context, carts *cart.Service, sessionKey, userID string, ship Shipping) (Order, []InvalidLine, error) {
	lines, err := carts.Items(ctx, sessionKey)
	if err != nil {
		return Order{}, nil, err
	}
	o, skipped, err := e.CreateOrder(userID, lines, ship)
	if err != nil {
		return Order{}, skipped, err
	}
	if err := carts.Clear(ctx, sessionKey); err != nil {
		e.log.Warn("order placed but cart not cleared",
			store.String("order_id", o.ID),
			store.String("session", sessionKey),
			store.Error(err))
	}
	return o, skipped, nil
}

// CancelOrder cancels an order and returns its stock. Only the owner can
// cancel, and only from a state the lifecycle allows; cancelling a
// completed or already cancelled order fails with InvalidTransitionError.
func (e *Engine) CancelOrder(userID, orderID string) error {
	err := e.repo.WithinTransaction(func(tx Tx) error {
		o, err := tx.Order(orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrOrderNotFound
		}
		if !o.Status.CanTransition(StatusCancelled) {
			return &InvalidTransitionError{From: o.Status, To: StatusCancelled}
		}
		// Stock first, then the status flip: RestoreStock is guarded by the
		// order still being cancellable, so this order keeps the guard alive
		// for the whole transaction. The SetStatus compare-and-set is what
		// makes a racing cancel fail instead of restoring stock twice.
		for _, it := range o.Items {
			if err := tx.RestoreStock(orderID, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return tx.SetStatus(orderID, StatusCancelled, o.Status)
	})
	if err != nil {
		return err
	}
	e.log.Info("order cancelled",
		store.String("order_id", orderID),
		store.String("user_id", userID))
	return nil
}

// Order returns one of the user's orders with its items.
func (e *Engine) Order(userID, orderID string) (Order, error) {
	o, err := e.repo.Order(orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

// Orders returns all orders of the user, newest first.
func (e *Engine) Orders(userID string) ([]Order, error) {
	return e.repo.OrdersByUser(userID)
}

// MarkPaid flags a user's order as paid. Cancelled orders cannot be paid.
func (e *Engine) MarkPaid(userID, orderID string) error {
	o, err := e.Order(userID, orderID)
	if err != nil {
		return err
	}
	if o.Status == StatusCancelled {
		return &InvalidTransitionError{From: o.Status, To: o.Status}
	}
	return e.repo.SetPaid(orderID, true)
}

// SetStatus moves a user's order along the lifecycle, rejecting moves the
// status machine does not allow.
func (e *Engine) SetStatus(userID, orderID string, next Status) error {
	if !next.Valid() {
		return &InvalidTransitionError{To: next}
	}
	o, err := e.Order(userID, orderID)
	if err != nil {
		return err
	}
	if !o.Status.CanTransition(next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}
	// Compare-and-set on the status we just validated, so a concurrent move
	// cannot be overwritten.
	return e.repo.SetStatus(orderID, next, o.Status)
}
