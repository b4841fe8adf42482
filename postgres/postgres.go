// Package postgres provides a PostgreSQL implementation of the
// storefront.Database interface on database/sql and lib/pq.
package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	store "github.com/medatechnology/storefront"
)

// postgres implements the storefront.Database interface for PostgreSQL.
type postgres struct {
	db     *sql.DB        // The underlying database connection pool
	config PostgresConfig // Configuration for connection management
}

// NewDatabase creates a new PostgreSQL database instance.
// It takes a PostgresConfig and returns a storefront.DirectDB.
func NewDatabase(config PostgresConfig) (store.DirectDB, error) {
	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostgresInvalidConfig, err)
	}

	connStr, err := config.ToSimpleDSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build DSN: %w", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		wrappedErr := WrapPostgreSQLError(err, "CONNECT", "", "")
		return nil, fmt.Errorf("%w: %v", ErrPostgresConnectionFailed, wrappedErr)
	}

	// Set connection pool properties from config
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	// Ping the database to verify the connection
	if err = db.Ping(); err != nil {
		db.Close() // Clean up the connection on failure
		wrappedErr := WrapPostgreSQLError(err, "PING", "", "")
		return nil, fmt.Errorf("%w: %v", ErrPostgresConnectionFailed, wrappedErr)
	}

	if err = validatePostgreSQLConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection validation failed: %w", err)
	}

	return &postgres{
		db:     db,
		config: config,
	}, nil
}

// Close closes the database connection.
func (pdb *postgres) Close() error {
	return pdb.db.Close()
}

// SelectOne retrieves a single record from the specified table.
func (pdb *postgres) SelectOne(tableName string) (store.DBRecord, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT 1", tableName)
	rows, err := pdb.db.Query(query)
	if err != nil {
		return store.DBRecord{}, fmt.Errorf("failed to execute SelectOne query: %w", err)
	}
	defer rows.Close()

	records, err := scanRowsToDBRecords(rows, tableName)
	if err != nil {
		return store.DBRecord{}, err
	}

	return records[0], nil
}

// SelectMany retrieves all records from the specified table.
func (pdb *postgres) SelectMany(tableName string) (store.DBRecords, error) {
	query := fmt.Sprintf("SELECT * FROM %s", tableName)
	rows, err := pdb.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SelectMany query: %w", err)
	}
	defer rows.Close()

	return scanRowsToDBRecords(rows, tableName)
}

// InsertOneDBRecord inserts a single DBRecord into its table. Primary keys
// are assigned by the caller (uuid strings), so there is no RETURNING clause
// and LastInsertID stays zero.
func (pdb *postgres) InsertOneDBRecord(record store.DBRecord, queue bool) store.BasicSQLResult {
	if err := store.ValidateTableName(record.TableName); err != nil {
		return store.BasicSQLResult{Error: err}
	}

	// PostgreSQL uses $1, $2, etc. for placeholders
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

	result, err := pdb.db.Exec(query, values...)
	if err != nil {
		return store.BasicSQLResult{Error: WrapPostgreSQLError(err, "INSERT", record.TableName, query)}
	}

	rowsAffected, _ := result.RowsAffected()
	return store.BasicSQLResult{RowsAffected: int(rowsAffected)}
}

// InsertManyDBRecords inserts multiple DBRecords, possibly of different tables.
func (pdb *postgres) InsertManyDBRecords(records []store.DBRecord, queue bool) ([]store.BasicSQLResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	results := make([]store.BasicSQLResult, 0, len(records))

	for _, record := range records {
		result := pdb.InsertOneDBRecord(record, queue)
		results = append(results, result)
		if result.Error != nil {
			return results, result.Error
		}
	}

	return results, nil
}

// InsertManyDBRecordsSameTable inserts multiple DBRecords from the same table
// efficiently with a single multi-row INSERT.
func (pdb *postgres) InsertManyDBRecordsSameTable(records []store.DBRecord, queue bool) ([]store.BasicSQLResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	// Queue mode is an RQLite concept
	if queue {
		return nil, fmt.Errorf("queue mode not supported for PostgreSQL")
	}

	tableName := records[0].TableName
	for i, record := range records {
		if record.TableName != tableName {
			return nil, fmt.Errorf("all records must be from the same table, record %d has table '%s' but expected '%s'",
				i, record.TableName, tableName)
		}
	}

	// Single statement like:
	// INSERT INTO table (col1, col2) VALUES ($1, $2), ($3, $4), ($5, $6)
	batchSQL, values, err := buildPostgreSQLBatchInsertSQL(records)
	if err != nil {
		return []store.BasicSQLResult{{Error: err}}, err
	}

	result, err := pdb.db.Exec(batchSQL, values...)
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

// InsertOneTableStruct inserts a single TableStruct into the database.
func (pdb *postgres) InsertOneTableStruct(obj store.TableStruct, queue bool) store.BasicSQLResult {
	record, err := store.TableStructToDBRecord(obj)
	if err != nil {
		return store.BasicSQLResult{Error: err}
	}
	return pdb.InsertOneDBRecord(record, queue)
}

// InsertManyTableStructs inserts multiple TableStructs into the database.
func (pdb *postgres) InsertManyTableStructs(objs []store.TableStruct, queue bool) ([]store.BasicSQLResult, error) {
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

	return pdb.InsertManyDBRecords(records, queue)
}

// ExecOneSQLParameterized executes a single parameterized SQL query that does
// not return rows. The query may use ? placeholders, they are converted to $N.
func (pdb *postgres) ExecOneSQLParameterized(paramSQL store.ParameterizedSQL) store.BasicSQLResult {
	query := convertToPostgreSQLPlaceholders(paramSQL.Query)
	result, err := pdb.db.Exec(query, paramSQL.Values...)
	if err != nil {
		return store.BasicSQLResult{Error: WrapPostgreSQLError(err, "EXEC", extractTableNameFromSQL(query), query)}
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.BasicSQLResult{Error: err}
	}
	return store.BasicSQLResult{RowsAffected: int(rowsAffected)}
}

// ExecManySQLParameterized executes multiple parameterized SQL queries inside
// one transaction.
func (pdb *postgres) ExecManySQLParameterized(paramSQLs []store.ParameterizedSQL) ([]store.BasicSQLResult, error) {
	tx, err := pdb.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	results := make([]store.BasicSQLResult, 0, len(paramSQLs))
	for _, ps := range paramSQLs {
		result, err := tx.Exec(convertToPostgreSQLPlaceholders(ps.Query), ps.Values...)
		if err != nil {
			results = append(results, store.BasicSQLResult{Error: err})
			return results, fmt.Errorf("failed to execute SQL: %w", err)
		}
		rowsAffected, _ := result.RowsAffected()
		results = append(results, store.BasicSQLResult{RowsAffected: int(rowsAffected)})
	}

	if err := tx.Commit(); err != nil {
		return results, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return results, nil
}

// SelectOneSQLParameterized executes a single parameterized SQL query that returns rows.
func (pdb *postgres) SelectOneSQLParameterized(paramSQL store.ParameterizedSQL) (store.DBRecords, error) {
	query := convertToPostgreSQLPlaceholders(paramSQL.Query)
	rows, err := pdb.db.Query(query, paramSQL.Values...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SelectOneSQLParameterized query: %w", err)
	}
	defer rows.Close()

	return scanRowsToDBRecords(rows, "")
}

// SelectManySQLParameterized executes multiple parameterized SQL queries that return rows.
func (pdb *postgres) SelectManySQLParameterized(paramSQLs []store.ParameterizedSQL) ([]store.DBRecords, error) {
	allResults := make([]store.DBRecords, 0, len(paramSQLs))
	for _, ps := range paramSQLs {
		records, err := pdb.SelectOneSQLParameterized(ps)
		if err != nil {
			if err == store.ErrSQLNoRows {
				allResults = append(allResults, store.DBRecords{})
				continue
			}
			return nil, err
		}
		allResults = append(allResults, records)
	}
	return allResults, nil
}

// GetSchema retrieves schema information from PostgreSQL's information_schema.
// hideSQL and hideInternal follow the interface but only hideInternal is
// meaningful here (skips tables starting with underscore).
func (pdb *postgres) GetSchema(hideSQL, hideInternal bool) []store.SchemaStruct {
	query := `
		SELECT DISTINCT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		ORDER BY table_name;
	`
	rows, err := pdb.db.Query(query)
	if err != nil {
		store.LogError("failed to get schema", store.Error(err))
		return nil
	}
	defer rows.Close()

	var schemas []store.SchemaStruct
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			store.LogError("failed to scan schema row", store.Error(err))
			continue
		}
		if hideInternal && strings.HasPrefix(tableName, "_") {
			continue
		}
		schemas = append(schemas, store.SchemaStruct{
			ObjectType: "table",
			ObjectName: tableName,
			TableName:  tableName,
		})
	}
	return schemas
}

// Status retrieves the status of the PostgreSQL database.
func (pdb *postgres) Status() (store.NodeStatusStruct, error) {
	var status store.NodeStatusStruct
	status.DBMS = "postgresql"
	status.DBMSDriver = "lib/pq"

	// Connection URL without password
	status.URL = fmt.Sprintf("postgres://%s@%s:%d/%s",
		pdb.config.User,
		pdb.config.Host,
		pdb.config.Port,
		pdb.config.DBName,
	)

	var version string
	err := pdb.db.QueryRow("SELECT version()").Scan(&version)
	if err != nil {
		return status, fmt.Errorf("failed to get PostgreSQL version: %w", err)
	}
	status.Version = version

	status.Nodes = 1
	status.IsLeader = true // Single node is always the "leader"

	stats, err := getPostgreSQLStats(pdb.db, pdb.config.DBName)
	if err == nil {
		if dbSize, ok := stats["db_size"].(int64); ok {
			status.DBSize = dbSize
		}
	}

	dbStats := pdb.db.Stats()
	status.Leader = fmt.Sprintf("%s:%d (Open:%d Idle:%d InUse:%d)",
		pdb.config.Host,
		pdb.config.Port,
		dbStats.OpenConnections,
		dbStats.Idle,
		dbStats.InUse,
	)

	return status, nil
}

// SelectOneWithCondition retrieves a single record matching the condition.
func (pdb *postgres) SelectOneWithCondition(tableName string, condition *store.Condition) (store.DBRecord, error) {
	if condition == nil {
		return pdb.SelectOne(tableName)
	}

	query, params := condition.ToSelectString(tableName)
	query = convertToPostgreSQLPlaceholders(query)

	// Add LIMIT 1 if not present
	if !strings.Contains(strings.ToUpper(query), "LIMIT") {
		query += " LIMIT 1"
	}

	rows, err := pdb.db.Query(query, params...)
	if err != nil {
		return store.DBRecord{}, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	records, err := scanRowsToDBRecords(rows, tableName)
	if err != nil {
		return store.DBRecord{}, err
	}

	return records[0], nil
}

// SelectManyWithCondition retrieves multiple records matching the condition.
func (pdb *postgres) SelectManyWithCondition(tableName string, condition *store.Condition) ([]store.DBRecord, error) {
	if condition == nil {
		return pdb.SelectMany(tableName)
	}

	query, params := condition.ToSelectString(tableName)
	query = convertToPostgreSQLPlaceholders(query)

	rows, err := pdb.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return scanRowsToDBRecords(rows, tableName)
}

// SelectOneSQL executes a raw SQL query and returns the results.
func (pdb *postgres) SelectOneSQL(sql string) (store.DBRecords, error) {
	rows, err := pdb.db.Query(sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return scanRowsToDBRecords(rows, "")
}

// SelectManySQL executes multiple SQL queries and returns results.
func (pdb *postgres) SelectManySQL(sqls []string) ([]store.DBRecords, error) {
	results := make([]store.DBRecords, 0, len(sqls))

	for _, sql := range sqls {
		rows, err := pdb.db.Query(sql)
		if err != nil {
			return results, fmt.Errorf("failed to execute query: %w", err)
		}

		records, err := scanRowsToDBRecords(rows, "")
		rows.Close()
		if err != nil {
			if err == store.ErrSQLNoRows {
				results = append(results, store.DBRecords{})
				continue
			}
			return results, err
		}

		results = append(results, records)
	}

	return results, nil
}

// SelectOnlyOneSQL executes a SQL query and ensures exactly one row is returned.
func (pdb *postgres) SelectOnlyOneSQL(sql string) (store.DBRecord, error) {
	records, err := pdb.SelectOneSQL(sql)
	if err != nil {
		return store.DBRecord{}, err
	}

	if len(records) > 1 {
		return store.DBRecord{}, store.ErrSQLMoreThanOneRow
	}

	return records[0], nil
}

// SelectOnlyOneSQLParameterized executes a parameterized query ensuring exactly one row.
func (pdb *postgres) SelectOnlyOneSQLParameterized(paramSQL store.ParameterizedSQL) (store.DBRecord, error) {
	records, err := pdb.SelectOneSQLParameterized(paramSQL)
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

// ExecOneSQL executes a raw SQL query that does not return rows.
func (pdb *postgres) ExecOneSQL(sql string) store.BasicSQLResult {
	result, err := pdb.db.Exec(sql)
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

// ExecManySQL executes multiple raw SQL queries inside one transaction.
func (pdb *postgres) ExecManySQL(sqls []string) ([]store.BasicSQLResult, error) {
	results := make([]store.BasicSQLResult, 0, len(sqls))

	tx, err := pdb.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, sql := range sqls {
		result, err := tx.Exec(sql)
		if err != nil {
			results = append(results, store.BasicSQLResult{Error: err})
			return results, fmt.Errorf("failed to execute SQL: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		results = append(results, store.BasicSQLResult{
			RowsAffected: int(rowsAffected),
		})
	}

	if err := tx.Commit(); err != nil {
		return results, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return results, nil
}

// IsConnected checks if the database connection is active.
func (pdb *postgres) IsConnected() bool {
	if pdb.db == nil {
		return false
	}
	err := pdb.db.Ping()
	return err == nil
}

// Leader returns the leader node (not applicable for PostgreSQL).
func (pdb *postgres) Leader() (string, error) {
	return "not implemented for PostgreSQL", nil
}

// Peers returns peer nodes (not applicable for PostgreSQL).
func (pdb *postgres) Peers() ([]string, error) {
	return []string{}, nil
}
