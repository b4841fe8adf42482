package rqlite

import (
	store "github.com/medatechnology/storefront"
	"github.com/rqlite/gorqlite"
)

// ConditionToParameterized builds a gorqlite statement from a Condition.
func ConditionToParameterized(tableName string, c *store.Condition) gorqlite.ParameterizedStatement {
	query, values := c.ToSelectString(tableName)
	return gorqlite.ParameterizedStatement{
		Query:     query,
		Arguments: values,
	}
}

// FromOneParameterizedSQL converts one store.ParameterizedSQL to a
// gorqlite.ParameterizedStatement
func FromOneParameterizedSQL(p store.ParameterizedSQL) gorqlite.ParameterizedStatement {
	return gorqlite.ParameterizedStatement{
		Query:     p.Query,
		Arguments: p.Values,
	}
}

// FromManyParameterizedSQL converts many store.ParameterizedSQL to
// gorqlite.ParameterizedStatement
func FromManyParameterizedSQL(p []store.ParameterizedSQL) []gorqlite.ParameterizedStatement {
	var ps []gorqlite.ParameterizedStatement
	for _, one := range p {
		ps = append(ps, FromOneParameterizedSQL(one))
	}
	return ps
}

// DBRecordToInsertParameterized converts a DBRecord to a ParameterizedStatement
func DBRecordToInsertParameterized(d *store.DBRecord) gorqlite.ParameterizedStatement {
	sql, values := d.ToInsertSQLParameterized()
	return gorqlite.ParameterizedStatement{
		Query:     sql,
		Arguments: values,
	}
}

// DBRecordsToInsertParameterized converts DBRecords to []ParameterizedStatement
func DBRecordsToInsertParameterized(d store.DBRecords) []gorqlite.ParameterizedStatement {
	params := d.ToInsertSQLParameterized()
	return FromManyParameterizedSQL(params)
}

func WriteResultToBasicSQLResult(res gorqlite.WriteResult) store.BasicSQLResult {
	var ret store.BasicSQLResult
	ret.Error = res.Err
	ret.LastInsertID = int(res.LastInsertID)
	ret.RowsAffected = int(res.RowsAffected)
	ret.Timing = res.Timing
	return ret
}

func WriteResultsToBasicSQLResults(res []gorqlite.WriteResult) []store.BasicSQLResult {
	var ret []store.BasicSQLResult
	for _, one := range res {
		ret = append(ret, WriteResultToBasicSQLResult(one))
	}
	return ret
}
