/*
Package sqldataset loads dataset.Frames from SQL database tables and writes
them to them.

A dataset table has one column per feature plus one for the response and
an "id" primary key that keeps rows in insertion order:
  * Continuous features and the response are stored as REAL values
  * Discrete features are stored as TEXT with the name of the level

The differences between database engines are hidden behind an Adapter;
the sqlite3adapter and pgadapter subpackages provide them for SQLite3 and
PostgreSQL.
*/
package sqldataset
