package sqldataset

import "database/sql"

/*
Adapter is an interface providing the methods
needed to store datasets on a database backend.
*/
type Adapter interface {
	// DB returns the connection to the database.
	DB() *sql.DB
	// ColumnName takes a feature or table name and returns the
	// quoted identifier for it, or an error if it cannot be used.
	ColumnName(string) (string, error)
	// Placeholder returns the parameter placeholder for the
	// n-th (1-based) argument of a statement.
	Placeholder(n int) string
	// IDColumn returns the definition of the auto-incremented
	// primary key column of dataset tables.
	IDColumn() string
	Close() error
}
