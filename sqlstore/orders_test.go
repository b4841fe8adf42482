package sqlstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/medatechnology/storefront/order"

	store "github.com/medatechnology/storefront"
)

// txStub fills in the Transaction surface these tests never touch, so the
// fakes below only implement what the order repository actually emits.
type txStub struct{}

var errStubbed = errors.New("not wired in this test")

func (txStub) Commit() error   { return nil }
func (txStub) Rollback() error { return nil }
func (txStub) ExecOneSQL(string) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (txStub) ExecOneSQLParameterized(store.ParameterizedSQL) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (txStub) ExecManySQL([]string) ([]store.BasicSQLResult, error) { return nil, errStubbed }
func (txStub) ExecManySQLParameterized([]store.ParameterizedSQL) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}
func (txStub) SelectOneSQL(string) (store.DBRecords, error)    { return nil, errStubbed }
func (txStub) SelectOnlyOneSQL(string) (store.DBRecord, error) { return store.DBRecord{}, errStubbed }
func (txStub) SelectOneSQLParameterized(store.ParameterizedSQL) (store.DBRecords, error) {
	return nil, errStubbed
}
func (txStub) SelectOnlyOneSQLParameterized(store.ParameterizedSQL) (store.DBRecord, error) {
	return store.DBRecord{}, errStubbed
}
func (txStub) InsertOneDBRecord(store.DBRecord) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (txStub) InsertManyDBRecords([]store.DBRecord) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}
func (txStub) InsertManyDBRecordsSameTable([]store.DBRecord) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}
func (txStub) InsertOneTableStruct(store.TableStruct) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (txStub) InsertManyTableStructs([]store.TableStruct) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}

// dbStub does the same for the Database surface.
type dbStub struct{}

func (dbStub) GetSchema(bool, bool) []store.SchemaStruct { return nil }
func (dbStub) Status() (store.NodeStatusStruct, error) {
	return store.NodeStatusStruct{}, errStubbed
}
func (dbStub) SelectOne(string) (store.DBRecord, error)    { return store.DBRecord{}, errStubbed }
func (dbStub) SelectMany(string) (store.DBRecords, error)  { return nil, errStubbed }
func (dbStub) SelectOneWithCondition(string, *store.Condition) (store.DBRecord, error) {
	return store.DBRecord{}, errStubbed
}
func (dbStub) SelectManyWithCondition(string, *store.Condition) ([]store.DBRecord, error) {
	return nil, errStubbed
}
func (dbStub) SelectOneSQL(string) (store.DBRecords, error)      { return nil, errStubbed }
func (dbStub) SelectManySQL([]string) ([]store.DBRecords, error) { return nil, errStubbed }
func (dbStub) SelectOnlyOneSQL(string) (store.DBRecord, error) {
	return store.DBRecord{}, errStubbed
}
func (dbStub) SelectOneSQLParameterized(store.ParameterizedSQL) (store.DBRecords, error) {
	return nil, errStubbed
}
func (dbStub) SelectManySQLParameterized([]store.ParameterizedSQL) ([]store.DBRecords, error) {
	return nil, errStubbed
}
func (dbStub) SelectOnlyOneSQLParameterized(store.ParameterizedSQL) (store.DBRecord, error) {
	return store.DBRecord{}, errStubbed
}
func (dbStub) ExecOneSQL(string) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (dbStub) ExecOneSQLParameterized(store.ParameterizedSQL) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (dbStub) ExecManySQL([]string) ([]store.BasicSQLResult, error) { return nil, errStubbed }
func (dbStub) ExecManySQLParameterized([]store.ParameterizedSQL) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}
func (dbStub) InsertOneDBRecord(store.DBRecord, bool) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (dbStub) InsertManyDBRecords([]store.DBRecord, bool) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}
func (dbStub) InsertManyDBRecordsSameTable([]store.DBRecord, bool) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}
func (dbStub) InsertOneTableStruct(store.TableStruct, bool) store.BasicSQLResult {
	return store.BasicSQLResult{Error: errStubbed}
}
func (dbStub) InsertManyTableStructs([]store.TableStruct, bool) ([]store.BasicSQLResult, error) {
	return nil, errStubbed
}
func (dbStub) IsConnected() bool        { return true }
func (dbStub) Leader() (string, error)  { return "", nil }
func (dbStub) Peers() ([]string, error) { return nil, nil }
func (dbStub) Close() error             { return nil }

// bufferedDB mimics the buffered transaction contract: writes accumulate
// client-side and report RowsAffected 0, reads always see committed state,
// and the whole batch is evaluated at commit with the stock CHECK enforced
// there. It holds just a product stock table, which is all the decrement
// path touches.
type bufferedDB struct {
	dbStub
	mu    sync.Mutex
	stock map[string]int
}

func newBufferedDB(stock map[string]int) *bufferedDB {
	return &bufferedDB{stock: stock}
}

func (db *bufferedDB) committedStock(id string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.stock[id]
}

func (db *bufferedDB) BeginTransaction() (store.Transaction, error) {
	return &bufferedTx{db: db}, nil
}

type bufferedTx struct {
	txStub
	db      *bufferedDB
	updates []store.ParameterizedSQL
}

func (tx *bufferedTx) SelectOnlyOneSQLParameterized(p store.ParameterizedSQL) (store.DBRecord, error) {
	if !strings.Contains(p.Query, "SELECT stock FROM products") {
		return store.DBRecord{}, fmt.Errorf("unexpected query in test: %s", p.Query)
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	id, _ := p.Values[0].(string)
	n, ok := tx.db.stock[id]
	if !ok {
		return store.DBRecord{}, store.ErrSQLNoRows
	}
	return store.DBRecord{TableName: "products", Data: map[string]interface{}{"stock": float64(n)}}, nil
}

func (tx *bufferedTx) ExecOneSQLParameterized(p store.ParameterizedSQL) store.BasicSQLResult {
	tx.updates = append(tx.updates, p)
	return store.BasicSQLResult{} // rows only known at commit
}

func (tx *bufferedTx) Commit() error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	next := make(map[string]int, len(tx.db.stock))
	for k, v := range tx.db.stock {
		next[k] = v
	}
	for _, p := range tx.updates {
		if !strings.Contains(p.Query, "stock = stock -") {
			return fmt.Errorf("unexpected statement in test: %s", p.Query)
		}
		qty, _ := p.Values[0].(int)
		id, _ := p.Values[2].(string)
		next[id] -= qty
		if next[id] < 0 {
			// The whole batch fails, nothing applies.
			return errors.New("CHECK constraint failed: products")
		}
	}
	tx.db.stock = next
	return nil
}

func (tx *bufferedTx) Rollback() error {
	tx.updates = nil
	return nil
}

// Two checkouts race for the last units of stock while both transactions
// are still buffered. The one committing late must fail its whole batch
// rather than commit without its decrement.
func TestBufferedBackendNeverOversells(t *testing.T) {
	db := newBufferedDB(map[string]int{"p1": 5})
	s := New(db, nil)

	var second error
	first := s.WithinTransaction(func(tx1 order.Tx) error {
		if err := tx1.DecrementStock("p1", 3); err != nil {
			return err
		}
		// A concurrent checkout of the same product commits in between.
		second = s.WithinTransaction(func(tx2 order.Tx) error {
			return tx2.DecrementStock("p1", 3)
		})
		return nil
	})

	if second != nil {
		t.Fatalf("first committer: %v", second)
	}
	if !errors.Is(first, order.ErrStockConflict) {
		t.Fatalf("late committer err = %v, want ErrStockConflict", first)
	}
	if got := db.committedStock("p1"); got != 2 {
		t.Fatalf("stock = %d, want 2 with exactly one decrement applied", got)
	}
}

// scriptedTx records every exec and answers selects with a canned record,
// for asserting the exact guards the order statements carry.
type scriptedTx struct {
	txStub
	execResult store.BasicSQLResult
	record     store.DBRecord
	recordErr  error
	queries    []string
}

func (tx *scriptedTx) ExecOneSQLParameterized(p store.ParameterizedSQL) store.BasicSQLResult {
	tx.queries = append(tx.queries, p.Query)
	return tx.execResult
}

func (tx *scriptedTx) SelectOnlyOneSQLParameterized(p store.ParameterizedSQL) (store.DBRecord, error) {
	tx.queries = append(tx.queries, p.Query)
	return tx.record, tx.recordErr
}

func TestSetStatusCompareAndSet(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		st := &scriptedTx{execResult: store.BasicSQLResult{RowsAffected: 1}}
		tx := &orderTx{tx: st}
		if err := tx.SetStatus("o1", order.StatusCancelled, order.StatusPending, order.StatusProcessing); err != nil {
			t.Fatalf("set status: %v", err)
		}
		if len(st.queries) != 1 {
			t.Fatalf("queries = %v, want just the update", st.queries)
		}
		if !strings.Contains(st.queries[0], "AND status IN (?, ?)") {
			t.Fatalf("update not guarded: %s", st.queries[0])
		}
	})

	t.Run("lost race", func(t *testing.T) {
		st := &scriptedTx{
			record: store.DBRecord{Data: map[string]interface{}{"status": "cancelled"}},
		}
		tx := &orderTx{tx: st}
		err := tx.SetStatus("o1", order.StatusCancelled, order.StatusPending, order.StatusProcessing)
		var ite *order.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("err = %v, want InvalidTransitionError", err)
		}
		if ite.From != order.StatusCancelled {
			t.Fatalf("From = %s, want cancelled", ite.From)
		}
	})

	t.Run("order gone", func(t *testing.T) {
		st := &scriptedTx{recordErr: store.ErrSQLNoRows}
		tx := &orderTx{tx: st}
		if err := tx.SetStatus("o1", order.StatusCompleted, order.StatusProcessing); !errors.Is(err, order.ErrOrderNotFound) {
			t.Fatalf("err = %v, want ErrOrderNotFound", err)
		}
	})

	t.Run("buffered pre-commit read", func(t *testing.T) {
		// Zero rows but the re-read still shows an allowed status: that is
		// the buffered backend, where the guarded update resolves at commit.
		st := &scriptedTx{
			record: store.DBRecord{Data: map[string]interface{}{"status": "pending"}},
		}
		tx := &orderTx{tx: st}
		if err := tx.SetStatus("o1", order.StatusCancelled, order.StatusPending); err != nil {
			t.Fatalf("set status: %v", err)
		}
	})
}

func TestRestoreStockGuardedByOrderStatus(t *testing.T) {
	st := &scriptedTx{}
	tx := &orderTx{tx: st}
	if err := tx.RestoreStock("o1", "p1", 2); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(st.queries) != 1 {
		t.Fatalf("queries = %v, want one update", st.queries)
	}
	if !strings.Contains(st.queries[0], "(SELECT status FROM orders WHERE id = ?)") {
		t.Fatalf("restock not tied to order status: %s", st.queries[0])
	}
}
