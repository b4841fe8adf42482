// Package storefront defines the persistence layer shared by the commerce
// packages (catalog, cart, order, review). Backends implement the Database
// and Transaction interfaces over their native drivers; domain repositories
// talk to these interfaces only.
package storefront

type Database interface {
	GetSchema(bool, bool) []SchemaStruct
	Status() (NodeStatusStruct, error)

	SelectOne(string) (DBRecord, error)   // This is almost unusable, very rare case
	SelectMany(string) (DBRecords, error) // This is almost unusable, very rare case (this is like select ALL rows from the table)
	SelectOneWithCondition(string, *Condition) (DBRecord, error)
	SelectManyWithCondition(string, *Condition) ([]DBRecord, error)

	SelectOneSQL(string) (DBRecords, error)                             // select using one sql statement
	SelectManySQL([]string) ([]DBRecords, error)                        // select using many sql statements
	SelectOnlyOneSQL(string) (DBRecord, error)                          // select only returning 1 row, and also check if actually more than 1 return errors
	SelectOneSQLParameterized(ParameterizedSQL) (DBRecords, error)      // select using one parameterized sql statement
	SelectManySQLParameterized([]ParameterizedSQL) ([]DBRecords, error) // select using many parameterized sql statements
	SelectOnlyOneSQLParameterized(ParameterizedSQL) (DBRecord, error)   // select only returning 1 row, and also check if actually more than 1 return errors

	ExecOneSQL(string) BasicSQLResult
	ExecOneSQLParameterized(ParameterizedSQL) BasicSQLResult
	ExecManySQL([]string) ([]BasicSQLResult, error)
	ExecManySQLParameterized([]ParameterizedSQL) ([]BasicSQLResult, error)

	InsertOneDBRecord(DBRecord, bool) BasicSQLResult
	InsertManyDBRecords([]DBRecord, bool) ([]BasicSQLResult, error)
	InsertManyDBRecordsSameTable([]DBRecord, bool) ([]BasicSQLResult, error)

	// TableStruct is less practical
	InsertOneTableStruct(TableStruct, bool) BasicSQLResult
	InsertManyTableStructs([]TableStruct, bool) ([]BasicSQLResult, error)

	// Status and Health check
	IsConnected() bool
	Leader() (string, error)  // RQLite returns the raft leader, single-node backends return "not implemented"
	Peers() ([]string, error) // RQLite returns raft peers, single-node backends return empty

	// The reason we don't do UPDATE or DELETE from DBRecord or Tablestruct is because
	// it's hard to tell which is the Where statement and which field is needed to be updated.
	// Like if we have a record/struct with .id=X, .name=somename, .age=10
	// and we pass it to UpdateOneDBRecord or UpdateOneTableStruct
	// we can't tell: update [table] set name=somename, age=10 where id=X
	//           or : update [table] set id=x where name=somename AND age=10
	// and there are still more other possibilities. Same with delete.
	// UPDATE and DELETE go through ExecOneSQLParameterized instead, the repositories
	// in sqlstore own those statements.
}

// Transaction is a unit of work on a Database. PostgreSQL backs it with a
// server-side transaction; RQLite buffers the writes and submits them as one
// atomic request on Commit. Because of the buffered model, writes inside a
// transaction may not report RowsAffected until commit, and SELECTs always
// read the pre-transaction state on RQLite. Callers that need
// read-your-own-writes must use the PostgreSQL backend.
type Transaction interface {
	Commit() error
	Rollback() error

	ExecOneSQL(string) BasicSQLResult
	ExecOneSQLParameterized(ParameterizedSQL) BasicSQLResult
	ExecManySQL([]string) ([]BasicSQLResult, error)
	ExecManySQLParameterized([]ParameterizedSQL) ([]BasicSQLResult, error)

	SelectOneSQL(string) (DBRecords, error)
	SelectOnlyOneSQL(string) (DBRecord, error)
	SelectOneSQLParameterized(ParameterizedSQL) (DBRecords, error)
	SelectOnlyOneSQLParameterized(ParameterizedSQL) (DBRecord, error)

	InsertOneDBRecord(DBRecord) BasicSQLResult
	InsertManyDBRecords([]DBRecord) ([]BasicSQLResult, error)
	InsertManyDBRecordsSameTable([]DBRecord) ([]BasicSQLResult, error)

	InsertOneTableStruct(TableStruct) BasicSQLResult
	InsertManyTableStructs([]TableStruct) ([]BasicSQLResult, error)
}

// DirectDB is a Database that also owns its connection and can open
// transactions. Both backends return this from their NewDatabase.
type DirectDB interface {
	Database
	BeginTransaction() (Transaction, error)
	Close() error
}
