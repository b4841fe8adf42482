package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	store "github.com/medatechnology/storefront"
)

// postgresTransaction implements the storefront.Transaction interface over a
// server-side *sql.Tx. Writes are interactive: RowsAffected is available
// immediately, which is what lets the order engine detect a lost stock race
// before commit.
type postgresTransaction struct {
	tx *sql.Tx
}

// BeginTransaction starts a new database transaction
func (pdb *postgres) BeginTransaction() (store.Transaction, error) {
	tx, err := pdb.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &postgresTransaction{
		tx: tx,
	}, nil
}

// Commit commits the transaction
func (ptx *postgresTransaction) Commit() error {
	if ptx.tx == nil {
		return fmt.Errorf("transaction is nil or already closed")
	}
	err := ptx.tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction
func (ptx *postgresTransaction) Rollback() error {
	if ptx.tx == nil {
		return fmt.Errorf("transaction is nil or already closed")
	}
	err := ptx.tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// ExecOneSQL executes a single SQL statement within the transaction
func (ptx *postgresTransaction) ExecOneSQL(sqlStmt string) store.BasicSQLResult {
	if ptx.tx == nil {
		return store.BasicSQLResult{Error: fmt.Errorf("transaction is nil or already closed")}
	}

	result, err := ptx.tx.Exec(sqlStmt)
	if err != nil {
		return store.BasicSQLResult{Error: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.BasicSQLResult{Error: err}
	}

	return store.BasicSQLResult{
		RowsAffected: int(rowsAffected),
	}
}

// ExecOneSQLParameterized executes a parameterized SQL statement within the
// transaction. ? placeholders are converted to $N.
func (ptx *postgresTransaction) ExecOneSQLParameterized(paramSQL store.ParameterizedSQL) store.BasicSQLResult {
	if ptx.tx == nil {
		return store.BasicSQLResult{Error: fmt.Errorf("transaction is nil or already closed")}
	}

	query := convertToPostgreSQLPlaceholders(paramSQL.Query)
	result, err := ptx.tx.Exec(query, paramSQL.Values...)
	if err != nil {
		return store.BasicSQLResult{Error: WrapPostgreSQLError(err, "EXEC", extractTableNameFromSQL(query), query)}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.BasicSQLResult{Error: err}
	}

	return store.BasicSQLResult{
		RowsAffected: int(rowsAffected),
	}
}

// ExecManySQL executes multiple SQL statements within the transaction
func (ptx *postgresTransaction) ExecManySQL(sqls []string) ([]store.BasicSQLResult, error) {
	if ptx.tx == nil {
		return nil, fmt.Errorf("transaction is nil or already closed")
	}

	results := make([]store.BasicSQLResult, 0, len(sqls))

	for _, sqlStmt := range sqls {
		result, err := ptx.tx.Exec(sqlStmt)
		if err != nil {
			results = append(results, store.BasicSQLResult{Error: err})
			return results, fmt.Errorf("failed to execute SQL: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()

		results = append(results, store.BasicSQLResult{
			RowsAffected: int(rowsAffected),
		})
	}

	return results, nil
}

// ExecManySQLParameterized executes multiple parameterized SQL statements within the transaction
func (ptx *postgresTransaction) ExecManySQLParameterized(paramSQLs []store.ParameterizedSQL) ([]store.BasicSQLResult, error) {
	if ptx.tx == nil {
		return nil, fmt.Errorf("transaction is nil or already closed")
	}

	results := make([]store.BasicSQLResult, 0, len(paramSQLs))

	for _, paramSQL := range paramSQLs {
		result := ptx.ExecOneSQLParameterized(paramSQL)
		results = append(results, result)
		if result.Error != nil {
			return results, fmt.Errorf("failed to execute parameterized SQL: %w", result.Error)
		}
	}

	return results, nil
}

// SelectOneSQL executes a SELECT query within the transaction
func (ptx *postgresTransaction) SelectOneSQL(sqlStmt string) (store.DBRecords, error) {
	if ptx.tx == nil {
		return nil, fmt.Errorf("transaction is nil or already closed")
	}

	rows, err := ptx.tx.Query(sqlStmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return scanRowsToDBRecords(rows, "")
}

// SelectOnlyOneSQL executes a SELECT query that must return exactly one row
func (ptx *postgresTransaction) SelectOnlyOneSQL(sqlStmt string) (store.DBRecord, error) {
	records, err := ptx.SelectOneSQL(sqlStmt)
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

// SelectOneSQLParameterized executes a parameterized SELECT query within the transaction
func (ptx *postgresTransaction) SelectOneSQLParameterized(paramSQL store.ParameterizedSQL) (store.DBRecords, error) {
	if ptx.tx == nil {
		return nil, fmt.Errorf("transaction is nil or already closed")
	}

	query := convertToPostgreSQLPlaceholders(paramSQL.Query)
	rows, err := ptx.tx.Query(query, paramSQL.Values...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute parameterized query: %w", err)
	}
	defer rows.Close()

	return scanRowsToDBRecords(rows, "")
}

// SelectOnlyOneSQLParameterized executes a parameterized SELECT query that must return exactly one row
func (ptx *postgresTransaction) SelectOnlyOneSQLParameterized(paramSQL store.ParameterizedSQL) (store.DBRecord, error) {
	records, err := ptx.SelectOneSQLParameterized(paramSQL)
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

// InsertOneDBRecord inserts a single DBRecord within the transaction
func (ptx *postgresTransaction) InsertOneDBRecord(record store.DBRecord) store.BasicSQLResult {
	if ptx.tx == nil {
		return store.BasicSQLResult{Error: fmt.Errorf("transaction is nil or already closed")}
	}

	if err := store.ValidateTableName(record.TableName); err != nil {
		return store.BasicSQLResult{Error: err}
	}

	cols := make([]string, 0, len(record.Data))
	placeholders := make([]string, 0, len(record.Data))
	values := make([]interface{}, 0, len(record.Data))
	paramCounter := 1

	for k, v := range record.Data {
		cols = append(cols, k)
		placeholders = append(placeholders, fmt.Sprintf("$%d", paramCounter))
		values = append(values, v)
		paramCounter++
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		record.TableName,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)

	result, err := ptx.tx.Exec(query, values...)
	if err != nil {
		return store.BasicSQLResult{Error: WrapPostgreSQLError(err, "INSERT", record.TableName, query)}
	}

	rowsAffected, _ := result.RowsAffected()

	return store.BasicSQLResult{
		RowsAffected: int(rowsAffected),
	}
}

// InsertManyDBRecords inserts multiple DBRecords within the transaction
func (ptx *postgresTransaction) InsertManyDBRecords(records []store.DBRecord) ([]store.BasicSQLResult, error) {
	if ptx.tx == nil {
		return nil, fmt.Errorf("transaction is nil or already closed")
	}

	if len(records) == 0 {
		return nil, nil
	}

	results := make([]store.BasicSQLResult, 0, len(records))

	for _, record := range records {
		result := ptx.InsertOneDBRecord(record)
		results = append(results, result)
		if result.Error != nil {
			return results, result.Error
		}
	}

	return results, nil
}

// InsertManyDBRecordsSameTable inserts multiple DBRecords from the same table efficiently
func (ptx *postgresTransaction) InsertManyDBRecordsSameTable(records []store.DBRecord) ([]store.BasicSQLResult, error) {
	if ptx.tx == nil {
		return nil, fmt.Errorf("transaction is nil or already closed")
	}

	if len(records) == 0 {
		return nil, nil
	}

	tableName := records[0].TableName
	for i, record := range records {
		if record.TableName != tableName {
			return nil, fmt.Errorf("all records must be from the same table, record %d has table '%s' but expected '%s'",
				i, record.TableName, tableName)
		}
	}

	batchSQL, values, err := buildPostgreSQLBatchInsertSQL(records)
	if err != nil {
		return []store.BasicSQLResult{{Error: err}}, err
	}

	result, err := ptx.tx.Exec(batchSQL, values...)
	if err != nil {
		wrappedErr := WrapPostgreSQLError(err, "INSERT", tableName, batchSQL)
		return []store.BasicSQLResult{{Error: wrappedErr}}, wrappedErr
	}

	rowsAffected, _ := result.RowsAffected()

	return []store.BasicSQLResult{{
		Error:        nil,
		RowsAffected: int(rowsAffected),
	}}, nil
}

// InsertOneTableStruct inserts a single TableStruct within the transaction
func (ptx *postgresTransaction) InsertOneTableStruct(obj store.TableStruct) store.BasicSQLResult {
	record, err := store.TableStructToDBRecord(obj)
	if err != nil {
		return store.BasicSQLResult{Error: err}
	}
	return ptx.InsertOneDBRecord(record)
}

// InsertManyTableStructs inserts multiple TableStructs within the transaction
func (ptx *postgresTransaction) InsertManyTableStructs(objs []store.TableStruct) ([]store.BasicSQLResult, error) {
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

	return ptx.InsertManyDBRecords(records)
}
