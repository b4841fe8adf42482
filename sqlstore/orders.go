package sqlstore

import (
	"errors"
	"strings"
	"time"

	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/order"

	store "github.com/medatechnology/storefront"
)

func orderFromRecord(rec store.DBRecord) order.Order {
	d := rec.Data
	return order.Order{
		ID:     asString(d["id"]),
		UserID: asString(d["user_id"]),
		Shipping: order.Shipping{
			FirstName:  asString(d["first_name"]),
			LastName:   asString(d["last_name"]),
			Email:      asString(d["email"]),
			Address:    asString(d["address"]),
			PostalCode: asString(d["postal_code"]),
			City:       asString(d["city"]),
		},
		Paid:    asBool(d["paid"]),
		Status:  order.Status(asString(d["status"])),
		Created: asTime(d["created"]),
		Updated: asTime(d["updated"]),
	}
}

func orderRecord(o order.Order) store.DBRecord {
	return store.DBRecord{
		TableName: o.TableName(),
		Data: map[string]interface{}{
			"id":          o.ID,
			"user_id":     o.UserID,
			"first_name":  o.Shipping.FirstName,
			"last_name":   o.Shipping.LastName,
			"email":       o.Shipping.Email,
			"address":     o.Shipping.Address,
			"postal_code": o.Shipping.PostalCode,
			"city":        o.Shipping.City,
			"paid":        o.Paid,
			"status":      string(o.Status),
			"created":     formatTime(o.Created),
			"updated":     formatTime(o.Updated),
		},
	}
}

func itemFromRecord(rec store.DBRecord) order.OrderItem {
	d := rec.Data
	return order.OrderItem{
		ID:        asString(d["id"]),
		OrderID:   asString(d["order_id"]),
		ProductID: asString(d["product_id"]),
		Name:      asString(d["name"]),
		Price:     asDecimal(d["price"]),
		Quantity:  asInt(d["quantity"]),
	}
}

func itemRecord(it order.OrderItem) store.DBRecord {
	return store.DBRecord{
		TableName: it.TableName(),
		Data: map[string]interface{}{
			"id":         it.ID,
			"order_id":   it.OrderID,
			"product_id": it.ProductID,
			"name":       it.Name,
			"price":      it.Price.String(),
			"quantity":   it.Quantity,
		},
	}
}

// WithinTransaction opens a backend transaction, hands it to fn as an
// order.Tx and commits when fn returns nil. Any error rolls everything
// back, on RQLite that simply discards the buffered statements.
func (s *Store) WithinTransaction(fn func(tx order.Tx) error) error {
	t, err := s.db.BeginTransaction()
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if rerr := t.Rollback(); rerr != nil {
				s.log.Warn("transaction rollback failed", store.Error(rerr))
			}
		}
	}()

	if err := fn(&orderTx{tx: t}); err != nil {
		return err
	}
	if err := t.Commit(); err != nil {
		// RQLite evaluates the buffered batch only now; a stock CHECK
		// failing here is a checkout that lost to a concurrent one.
		if isCheckViolation(err) {
			return order.ErrStockConflict
		}
		return err
	}
	committed = true
	return nil
}

// orderTx adapts a backend transaction to the order.Tx contract.
type orderTx struct {
	tx store.Transaction
}

func (t *orderTx) Product(id string) (catalog.Product, error) {
	rec, err := t.tx.SelectOnlyOneSQLParameterized(store.ParameterizedSQL{
		Query:  `SELECT * FROM products WHERE id = ?`,
		Values: []interface{}{id},
	})
	if errors.Is(err, store.ErrSQLNoRows) {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	return productFromRecord(rec), nil
}

func (t *orderTx) Order(id string) (order.Order, error) {
	rec, err := t.tx.SelectOnlyOneSQLParameterized(store.ParameterizedSQL{
		Query:  `SELECT * FROM orders WHERE id = ?`,
		Values: []interface{}{id},
	})
	if errors.Is(err, store.ErrSQLNoRows) {
		return order.Order{}, order.ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	o := orderFromRecord(rec)

	recs, err := t.tx.SelectOneSQLParameterized(store.ParameterizedSQL{
		Query:  `SELECT * FROM order_items WHERE order_id = ? ORDER BY name`,
		Values: []interface{}{id},
	})
	if err != nil && !errors.Is(err, store.ErrSQLNoRows) {
		return order.Order{}, err
	}
	for _, rec := range recs {
		o.Items = append(o.Items, itemFromRecord(rec))
	}
	return o, nil
}

func (t *orderTx) InsertOrder(o order.Order) error {
	res := t.tx.InsertOneDBRecord(orderRecord(o))
	return res.Error
}

func (t *orderTx) InsertItems(items []order.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	recs := make([]store.DBRecord, len(items))
	for i, it := range items {
		recs[i] = itemRecord(it)
	}
	results, err := t.tx.InsertManyDBRecordsSameTable(recs)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}

// DecrementStock takes qty off the product's stock: the stock is read and
// checked first, then decremented unconditionally so the CHECK (stock >= 0)
// constraint has the final word. On PostgreSQL a lost race fails the UPDATE
// itself; on RQLite it fails the whole buffered batch at commit, which
// WithinTransaction reports as ErrStockConflict. A guarded
// `AND stock >= ?` UPDATE must not be used here: on the buffered backend it
// no-ops silently when the condition fails at commit, and the order would
// land without its decrement.
func (t *orderTx) DecrementStock(productID string, qty int) error {
	rec, err := t.tx.SelectOnlyOneSQLParameterized(store.ParameterizedSQL{
		Query:  `SELECT stock FROM products WHERE id = ?`,
		Values: []interface{}{productID},
	})
	if errors.Is(err, store.ErrSQLNoRows) {
		return order.ErrStockConflict
	}
	if err != nil {
		return err
	}
	if asInt(rec.Data["stock"]) < qty {
		return order.ErrStockConflict
	}

	res := t.tx.ExecOneSQLParameterized(store.ParameterizedSQL{
		Query:  `UPDATE products SET stock = stock - ?, updated = ? WHERE id = ?`,
		Values: []interface{}{qty, formatTime(time.Now()), productID},
	})
	if res.Error != nil {
		if isCheckViolation(res.Error) {
			return order.ErrStockConflict
		}
		return res.Error
	}
	return nil
}

// RestoreStock gives qty units back for a cancelled order's line. The
// subselect ties the write to the order still being cancellable, so a
// second cancel of the same order matches nothing once the first one
// committed. The engine runs all restores before flipping the status, which
// keeps the guard true for this transaction's own batch.
func (t *orderTx) RestoreStock(orderID, productID string, qty int) error {
	res := t.tx.ExecOneSQLParameterized(store.ParameterizedSQL{
		Query: `UPDATE products SET stock = stock + ?, updated = ?
			WHERE id = ? AND (SELECT status FROM orders WHERE id = ?) IN (?, ?)`,
		Values: []interface{}{qty, formatTime(time.Now()), productID, orderID,
			string(order.StatusPending), string(order.StatusProcessing)},
	})
	return res.Error
}

// SetStatus is a compare-and-set: the UPDATE only matches while the current
// status is one of from. On PostgreSQL zero rows means a concurrent writer
// won and the whole transaction fails with InvalidTransitionError. On
// RQLite rows are not visible before commit; the pre-transaction re-read
// then still shows an allowed status and the guarded UPDATE simply no-ops
// at commit, with RestoreStock's guard keeping the batch free of side
// effects.
func (t *orderTx) SetStatus(orderID string, to order.Status, from ...order.Status) error {
	res := t.tx.ExecOneSQLParameterized(guardedStatusUpdate(orderID, to, from))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	rec, err := t.tx.SelectOnlyOneSQLParameterized(store.ParameterizedSQL{
		Query:  `SELECT status FROM orders WHERE id = ?`,
		Values: []interface{}{orderID},
	})
	if errors.Is(err, store.ErrSQLNoRows) {
		return order.ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	current := order.Status(asString(rec.Data["status"]))
	for _, f := range from {
		if current == f {
			return nil
		}
	}
	return &order.InvalidTransitionError{From: current, To: to}
}

// guardedStatusUpdate builds the status compare-and-set shared by the tx
// and store paths.
func guardedStatusUpdate(orderID string, to order.Status, from []order.Status) store.ParameterizedSQL {
	placeholders := make([]string, len(from))
	values := []interface{}{string(to), formatTime(time.Now()), orderID}
	for i, f := range from {
		placeholders[i] = "?"
		values = append(values, string(f))
	}
	return store.ParameterizedSQL{
		Query: `UPDATE orders SET status = ?, updated = ? WHERE id = ? AND status IN (` +
			strings.Join(placeholders, ", ") + `)`,
		Values: values,
	}
}

func (s *Store) Order(id string) (order.Order, error) {
	rec, err := s.selectRecord(`SELECT * FROM orders WHERE id = ?`, id)
	if errors.Is(err, store.ErrSQLNoRows) {
		return order.Order{}, order.ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	o := orderFromRecord(rec)
	items, err := s.orderItems(id)
	if err != nil {
		return order.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (s *Store) OrdersByUser(userID string) ([]order.Order, error) {
	recs, err := s.selectRecords(
		`SELECT * FROM orders WHERE user_id = ? ORDER BY created DESC`, userID)
	if err != nil {
		return nil, err
	}
	orders := make([]order.Order, len(recs))
	for i, rec := range recs {
		o := orderFromRecord(rec)
		items, err := s.orderItems(o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
		orders[i] = o
	}
	return orders, nil
}

func (s *Store) orderItems(orderID string) ([]order.OrderItem, error) {
	recs, err := s.selectRecords(
		`SELECT * FROM order_items WHERE order_id = ? ORDER BY name`, orderID)
	if err != nil {
		return nil, err
	}
	items := make([]order.OrderItem, len(recs))
	for i, rec := range recs {
		items[i] = itemFromRecord(rec)
	}
	return items, nil
}

// SetStatus is the store-level compare-and-set. Direct writes report their
// row count on both backends, so a miss is distinguished right here.
func (s *Store) SetStatus(orderID string, to order.Status, from ...order.Status) error {
	p := guardedStatusUpdate(orderID, to, from)
	res, err := s.exec(p.Query, p.Values...)
	if err != nil {
		return err
	}
	if res.RowsAffected > 0 {
		return nil
	}

	rec, err := s.selectRecord(`SELECT status FROM orders WHERE id = ?`, orderID)
	if errors.Is(err, store.ErrSQLNoRows) {
		return order.ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	return &order.InvalidTransitionError{
		From: order.Status(asString(rec.Data["status"])),
		To:   to,
	}
}

func (s *Store) SetPaid(orderID string, paid bool) error {
	res, err := s.exec(`UPDATE orders SET paid = ?, updated = ? WHERE id = ?`,
		paid, formatTime(time.Now()), orderID)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}
