package storefront

import (
	"fmt"
	"strings"

	"github.com/medatechnology/goutil/object"
)

// DBRecord is one row of one table as a column->value map. The commerce
// repositories in sqlstore build these explicitly so the column set is
// always visible at the call site.
type DBRecord struct {
	TableName string
	Data      map[string]interface{}
}

type DBRecords []DBRecord

// Append adds a new DBRecord to the DBRecords slice.
// Usage:
//
//	records.Append(newRecord)
func (d *DBRecords) Append(rec DBRecord) {
	*d = append(*d, rec)
}

// ToInsertSQLParameterized converts a single DBRecord to a parameterized
// INSERT SQL statement.
// Usage:
//
//	sql, values := record.ToInsertSQLParameterized()
//
// Returns:
//   - string: Parameterized INSERT query (e.g., "INSERT INTO table (col1, col2) VALUES (?, ?)")
//   - []interface{}: Slice of values for the parameters
func (d *DBRecord) ToInsertSQLParameterized() (string, []interface{}) {
	numFields := len(d.Data)
	columns := make([]string, 0, numFields)
	placeholders := make([]string, 0, numFields)
	values := make([]interface{}, 0, numFields)

	for key, value := range d.Data {
		columns = append(columns, key)
		placeholders = append(placeholders, "?")
		values = append(values, value)
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.TableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	return sql, values
}

// ToInsertSQLRaw converts a single DBRecord to a raw INSERT SQL statement
// with the values inlined. Prefer the parameterized variant; this exists for
// schema seeding and debugging.
func (d *DBRecord) ToInsertSQLRaw() (string, []interface{}) {
	numFields := len(d.Data)
	columns := make([]string, 0, numFields)
	values := make([]interface{}, 0, numFields)
	valuesStr := make([]string, 0, numFields)

	for key, value := range d.Data {
		columns = append(columns, key)
		values = append(values, value)
		valuesStr = append(valuesStr, InterfaceToSQLString(value))
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.TableName,
		strings.Join(columns, ", "),
		strings.Join(valuesStr, ", "),
	)
	return sql, values
}

// NOTE:
// For records of different tables use DBRecord.ToInsertSQLParameterized() per
// record. The bulk variants below are for same-table inserts only, which is
// how order items are written (one order, many items).
//
// ToInsertSQLParameterized converts multiple DBRecords to a slice of
// parameterized INSERT statements, batched according to MAX_MULTIPLE_INSERTS.
// Usage:
//
//	statements := records.ToInsertSQLParameterized()
func (records DBRecords) ToInsertSQLParameterized() []ParameterizedSQL {
	if len(records) == 0 {
		return nil
	}

	// Nil check to prevent panic
	if records[0].Data == nil {
		return nil
	}

	// All records should have the same structure, use the first one as template
	tableName := records[0].TableName

	numFields := len(records[0].Data)
	if numFields == 0 {
		return nil // No fields to insert
	}

	columns := make([]string, 0, numFields)
	for key := range records[0].Data {
		columns = append(columns, key)
	}

	numStatements := (len(records) + MAX_MULTIPLE_INSERTS - 1) / MAX_MULTIPLE_INSERTS

	paramStatements := make([]ParameterizedSQL, 0, numStatements)

	// Build the column part once - common for all statements
	columnsSQL := fmt.Sprintf("(%s)", strings.Join(columns, ", "))

	// Process in batches
	for i := 0; i < len(records); i += MAX_MULTIPLE_INSERTS {
		end := i + MAX_MULTIPLE_INSERTS
		if end > len(records) {
			end = len(records)
		}

		currentBatch := records[i:end]
		batchSize := len(currentBatch)

		placeholderGroups := make([]string, 0, batchSize)
		values := make([]interface{}, 0, batchSize*numFields)

		for _, record := range currentBatch {
			// Create placeholder group for this record (?,?,?)
			placeholders := make([]string, 0, numFields)
			for j := 0; j < numFields; j++ {
				placeholders = append(placeholders, "?")
			}
			placeholderGroups = append(placeholderGroups, fmt.Sprintf("(%s)", strings.Join(placeholders, ", ")))

			// Add values in the correct order (matching column order)
			for _, col := range columns {
				values = append(values, record.Data[col])
			}
		}

		sql := fmt.Sprintf(
			"INSERT INTO %s %s VALUES %s",
			tableName,
			columnsSQL,
			strings.Join(placeholderGroups, ", "),
		)

		paramStatements = append(paramStatements, ParameterizedSQL{
			Query:  sql,
			Values: values,
		})
	}

	return paramStatements
}

// ToInsertSQLRaw converts multiple DBRecords to a slice of raw INSERT SQL
// statements, batched according to MAX_MULTIPLE_INSERTS.
func (records DBRecords) ToInsertSQLRaw() []string {
	if len(records) == 0 {
		return nil
	}

	if records[0].Data == nil {
		return nil
	}

	tableName := records[0].TableName

	numFields := len(records[0].Data)
	if numFields == 0 {
		return nil
	}

	columns := make([]string, 0, numFields)
	for key := range records[0].Data {
		columns = append(columns, key)
	}

	numStatements := (len(records) + MAX_MULTIPLE_INSERTS - 1) / MAX_MULTIPLE_INSERTS

	sqlStatements := make([]string, 0, numStatements)

	columnsSQL := fmt.Sprintf("(%s)", strings.Join(columns, ", "))

	for i := 0; i < len(records); i += MAX_MULTIPLE_INSERTS {
		end := i + MAX_MULTIPLE_INSERTS
		if end > len(records) {
			end = len(records)
		}

		currentBatch := records[i:end]
		batchSize := len(currentBatch)

		valueGroups := make([]string, 0, batchSize)

		for _, record := range currentBatch {
			recordValues := make([]string, 0, numFields)
			for _, col := range columns {
				recordValues = append(recordValues, InterfaceToSQLString(record.Data[col]))
			}
			valueGroups = append(valueGroups, fmt.Sprintf("(%s)", strings.Join(recordValues, ", ")))
		}

		sql := fmt.Sprintf(
			"INSERT INTO %s %s VALUES %s",
			tableName,
			columnsSQL,
			strings.Join(valueGroups, ", "),
		)

		sqlStatements = append(sqlStatements, sql)
	}

	return sqlStatements
}

// FromStruct converts a TableStruct object to a DBRecord.
// It maps the struct fields to the DBRecord's Data map and sets the table name.
// Usage:
//
//	var record DBRecord
//	record.FromStruct(productStruct)
func (d *DBRecord) FromStruct(obj TableStruct) error {
	d.Data = object.StructToMap(obj)
	d.TableName = obj.TableName()
	return nil
}
