package rqlite

import (
	"fmt"

	store "github.com/medatechnology/storefront"
)

// rqliteTransaction implements the storefront.Transaction interface for
// RQLite. Unlike PostgreSQL which maintains server-side transaction state,
// RQLite buffers all writes client-side and sends them in one request on
// Commit; gorqlite submits the batch as a single server-side transaction so
// either all statements apply or none do.
//
// Consequences callers must know:
//   - writes report RowsAffected 0 until commit, the real results only exist
//     server-side. A conditional UPDATE that matches nothing (lost stock
//     race) is caught by the CHECK constraint on the stock column, which
//     fails the whole batch on commit.
//   - SELECTs execute immediately against the pre-transaction state.
type rqliteTransaction struct {
	db              *RQLiteDB
	statements      []string                // Buffered raw SQL statements
	paramStatements []store.ParameterizedSQL // Buffered parameterized statements
	committed       bool
	rolledBack      bool
}

// BeginTransaction starts a new transaction by creating a statement buffer
func (db *RQLiteDB) BeginTransaction() (store.Transaction, error) {
	return &rqliteTransaction{
		db:              db,
		statements:      make([]string, 0),
		paramStatements: make([]store.ParameterizedSQL, 0),
	}, nil
}

// Commit sends all buffered operations to RQLite atomically
func (tx *rqliteTransaction) Commit() error {
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}
	if tx.rolledBack {
		return fmt.Errorf("transaction already rolled back")
	}

	// Nothing to commit if no statements
	if len(tx.statements) == 0 && len(tx.paramStatements) == 0 {
		tx.committed = true
		return nil
	}

	// Raw statements become parameterized statements without values so the
	// whole buffer goes out in one request, in order.
	all := make([]store.ParameterizedSQL, 0, len(tx.statements)+len(tx.paramStatements))
	for _, sql := range tx.statements {
		all = append(all, store.ParameterizedSQL{Query: sql})
	}
	all = append(all, tx.paramStatements...)

	results, err := tx.db.ExecManySQLParameterized(all)
	if err != nil {
		return store.WrapTransactionError(err, "COMMIT")
	}
	for _, res := range results {
		if res.Error != nil {
			return store.WrapTransactionError(res.Error, "COMMIT")
		}
	}

	tx.committed = true
	return nil
}

// Rollback discards all buffered operations without sending them to RQLite
func (tx *rqliteTransaction) Rollback() error {
	if tx.committed {
		return fmt.Errorf("cannot rollback: transaction already committed")
	}
	if tx.rolledBack {
		return nil // Already rolled back, no error
	}

	tx.statements = nil
	tx.paramStatements = nil
	tx.rolledBack = true

	return nil
}

func (tx *rqliteTransaction) usable() error {
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}
	if tx.rolledBack {
		return fmt.Errorf("transaction already rolled back")
	}
	return nil
}

// ExecOneSQL buffers a SQL statement for execution on commit
func (tx *rqliteTransaction) ExecOneSQL(sqlStmt string) store.BasicSQLResult {
	if err := tx.usable(); err != nil {
		return store.BasicSQLResult{Error: err}
	}

	tx.statements = append(tx.statements, sqlStmt)
	return store.BasicSQLResult{} // Success will be determined on Commit
}

// ExecOneSQLParameterized buffers a parameterized SQL statement
func (tx *rqliteTransaction) ExecOneSQLParameterized(paramSQL store.ParameterizedSQL) store.BasicSQLResult {
	if err := tx.usable(); err != nil {
		return store.BasicSQLResult{Error: err}
	}

	tx.paramStatements = append(tx.paramStatements, paramSQL)
	return store.BasicSQLResult{} // Success will be determined on Commit
}

// ExecManySQL buffers multiple SQL statements
func (tx *rqliteTransaction) ExecManySQL(sqls []string) ([]store.BasicSQLResult, error) {
	if err := tx.usable(); err != nil {
		return nil, err
	}

	results := make([]store.BasicSQLResult, 0, len(sqls))
	for _, sql := range sqls {
		tx.statements = append(tx.statements, sql)
		results = append(results, store.BasicSQLResult{})
	}

	return results, nil
}

// ExecManySQLParameterized buffers multiple parameterized SQL statements
func (tx *rqliteTransaction) ExecManySQLParameterized(paramSQLs []store.ParameterizedSQL) ([]store.BasicSQLResult, error) {
	if err := tx.usable(); err != nil {
		return nil, err
	}

	results := make([]store.BasicSQLResult, 0, len(paramSQLs))
	for _, paramSQL := range paramSQLs {
		tx.paramStatements = append(tx.paramStatements, paramSQL)
		results = append(results, store.BasicSQLResult{})
	}

	return results, nil
}

// SelectOneSQL executes a SELECT immediately. The buffered model has no
// deferred reads, so the query sees the pre-transaction state.
func (tx *rqliteTransaction) SelectOneSQL(sqlStmt string) (store.DBRecords, error) {
	if err := tx.usable(); err != nil {
		return nil, err
	}

	return tx.db.SelectOneSQL(sqlStmt)
}

// SelectOnlyOneSQL executes a SELECT query that must return exactly one row
func (tx *rqliteTransaction) SelectOnlyOneSQL(sqlStmt string) (store.DBRecord, error) {
	records, err := tx.SelectOneSQL(sqlStmt)
	if err != nil {
		return store.DBRecord{}, err
	}

	if len(records) == 0 {
		return store.DBRecord{}, store.ErrSQLNoRows
	}

	if len(records) > 1 {
		return store.DBRecord{}, store.ErrSQLMoreThanOneRow
	}

	return records[0], nil
}

// SelectOneSQLParameterized executes a parameterized SELECT immediately
func (tx *rqliteTransaction) SelectOneSQLParameterized(paramSQL store.ParameterizedSQL) (store.DBRecords, error) {
	if err := tx.usable(); err != nil {
		return nil, err
	}

	return tx.db.SelectOneSQLParameterized(paramSQL)
}

// SelectOnlyOneSQLParameterized executes a parameterized SELECT that returns exactly one row
func (tx *rqliteTransaction) SelectOnlyOneSQLParameterized(paramSQL store.ParameterizedSQL) (store.DBRecord, error) {
	records, err := tx.SelectOneSQLParameterized(paramSQL)
	if err != nil {
		return store.DBRecord{}, err
	}

	if len(records) == 0 {
		return store.DBRecord{}, store.ErrSQLNoRows
	}

	if len(records) > 1 {
		return store.DBRecord{}, store.ErrSQLMoreThanOneRow
	}

	return records[0], nil
}

// InsertOneDBRecord buffers an insert operation
func (tx *rqliteTransaction) InsertOneDBRecord(record store.DBRecord) store.BasicSQLResult {
	if err := tx.usable(); err != nil {
		return store.BasicSQLResult{Error: err}
	}

	if err := store.ValidateTableName(record.TableName); err != nil {
		return store.BasicSQLResult{Error: err}
	}

	query, values := record.ToInsertSQLParameterized()
	tx.paramStatements = append(tx.paramStatements, store.ParameterizedSQL{
		Query:  query,
		Values: values,
	})

	return store.BasicSQLResult{} // Success determined on Commit
}

// InsertManyDBRecords buffers multiple insert operations
func (tx *rqliteTransaction) InsertManyDBRecords(records []store.DBRecord) ([]store.BasicSQLResult, error) {
	if err := tx.usable(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	results := make([]store.BasicSQLResult, 0, len(records))
	for _, record := range records {
		result := tx.InsertOneDBRecord(record)
		results = append(results, result)
		if result.Error != nil {
			return results, result.Error
		}
	}

	return results, nil
}

// InsertManyDBRecordsSameTable buffers batched multi-row inserts for one table
func (tx *rqliteTransaction) InsertManyDBRecordsSameTable(records []store.DBRecord) ([]store.BasicSQLResult, error) {
	if err := tx.usable(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	tableName := records[0].TableName
	if err := store.ValidateTableName(tableName); err != nil {
		return nil, err
	}
	for i, record := range records {
		if record.TableName != tableName {
			return nil, fmt.Errorf("all records must be from the same table, record %d has table '%s' but expected '%s'",
				i, record.TableName, tableName)
		}
	}

	statements := store.ToInsertSQLParameterizedFromSlice(records)
	tx.paramStatements = append(tx.paramStatements, statements...)

	results := make([]store.BasicSQLResult, len(statements))
	return results, nil
}

// InsertOneTableStruct buffers insert for a TableStruct
func (tx *rqliteTransaction) InsertOneTableStruct(obj store.TableStruct) store.BasicSQLResult {
	record, err := store.TableStructToDBRecord(obj)
	if err != nil {
		return store.BasicSQLResult{Error: err}
	}
	return tx.InsertOneDBRecord(record)
}

// InsertManyTableStructs buffers inserts for multiple TableStructs
func (tx *rqliteTransaction) InsertManyTableStructs(objs []store.TableStruct) ([]store.BasicSQLResult, error) {
	if len(objs) == 0 {
		return nil, nil
	}

	records := make([]store.DBRecord, 0, len(objs))
	for _, obj := range objs {
		record, err := store.TableStructToDBRecord(obj)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return tx.InsertManyDBRecords(records)
}
