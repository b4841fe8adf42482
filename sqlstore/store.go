// Package sqlstore implements the catalog, order and review repositories on
// top of the storefront Database and Transaction interfaces, so the same
// repository code runs against both the PostgreSQL and the RQLite backend.
package sqlstore

import (
	"errors"

	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/order"
	"github.com/medatechnology/storefront/review"

	store "github.com/medatechnology/storefront"
)

// Store is all three repositories over one database handle.
type Store struct {
	db  store.DirectDB
	log store.Logger
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ order.Repository   = (*Store)(nil)
	_ review.Repository  = (*Store)(nil)
)

func New(db store.DirectDB, log store.Logger) *Store {
	if log == nil {
		log = store.GetDefaultLogger()
	}
	return &Store{db: db, log: log}
}

// selectRecords runs one parameterized SELECT, mapping "no rows" to an
// empty result since list queries are allowed to come back empty.
func (s *Store) selectRecords(query string, values ...interface{}) (store.DBRecords, error) {
	recs, err := s.db.SelectOneSQLParameterized(store.ParameterizedSQL{Query: query, Values: values})
	if errors.Is(err, store.ErrSQLNoRows) {
		return store.DBRecords{}, nil
	}
	return recs, err
}

// selectRecord runs one parameterized SELECT that must return exactly one
// row. Callers map store.ErrSQLNoRows to their domain not-found error.
func (s *Store) selectRecord(query string, values ...interface{}) (store.DBRecord, error) {
	return s.db.SelectOnlyOneSQLParameterized(store.ParameterizedSQL{Query: query, Values: values})
}

// exec runs one parameterized write statement.
func (s *Store) exec(query string, values ...interface{}) (store.BasicSQLResult, error) {
	res := s.db.ExecOneSQLParameterized(store.ParameterizedSQL{Query: query, Values: values})
	return res, res.Error
}
