package sqldataset

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
)

/*
MaxSampleInsertionsPerStatement is the maximum number
of rows that are added with a single insert command by Write.
Writing more will result in making more insertion commands
*/
const MaxSampleInsertionsPerStatement = 10

/*
Load takes a context, an Adapter, a table name, a schema and the name of the
response column and returns a dataset.Frame with the rows of the table, in
id order, or an error.
*/
func Load(ctx context.Context, a Adapter, table string, schema *feature.Schema, response string) (*dataset.Frame, error) {
	names := append(schema.Names(), response)
	columns, err := columnNames(a, names)
	if err != nil {
		return nil, err
	}
	tableName, err := a.ColumnName(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY "id"`, strings.Join(columns, ", "), tableName)
	rows, err := a.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying samples from %s: %v", table, err)
	}
	defer rows.Close()
	b := dataset.NewBuilder(schema, response)
	values := make([]sql.NullString, len(names))
	dest := make([]interface{}, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		err = rows.Scan(dest...)
		if err != nil {
			return nil, fmt.Errorf("scanning sample #%d from %s: %v", b.Len(), table, err)
		}
		record := make(map[string]string, len(names))
		for i, n := range names {
			if values[i].Valid {
				record[n] = values[i].String
			} else {
				record[n] = feature.Missing
			}
		}
		err = b.Add(record)
		if err != nil {
			return nil, fmt.Errorf("parsing sample #%d from %s: %v", b.Len(), table, err)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples from %s: %v", table, err)
	}
	return b.Frame()
}

/*
Write takes a context, an Adapter, a table name and a dataset.Table and
stores every row of the dataset on the table, creating it if it does not
exist. Rows are inserted in a single transaction. It returns the number of
rows written and an error if something went wrong.
*/
func Write(ctx context.Context, a Adapter, table string, t dataset.Table) (int, error) {
	schema := t.Schema()
	names := append(schema.Names(), t.Response())
	columns, err := columnNames(a, names)
	if err != nil {
		return 0, err
	}
	tableName, err := a.ColumnName(table)
	if err != nil {
		return 0, err
	}
	tx, err := a.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %v", err)
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, createStatement(a, tableName, schema, columns))
	if err != nil {
		return 0, fmt.Errorf("ensuring table %s exists: %v", table, err)
	}
	written := 0
	for written < t.Len() {
		end := written + MaxSampleInsertionsPerStatement
		if end > t.Len() {
			end = t.Len()
		}
		stmt, args := insertStatement(a, tableName, columns, t, written, end)
		_, err = tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, fmt.Errorf("inserting samples #%d to #%d: %v", written, end-1, err)
		}
		written = end
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing samples: %v", err)
	}
	return written, nil
}

func columnNames(a Adapter, names []string) ([]string, error) {
	columns := make([]string, len(names))
	for i, n := range names {
		c, err := a.ColumnName(n)
		if err != nil {
			return nil, err
		}
		columns[i] = c
	}
	return columns, nil
}

func createStatement(a Adapter, table string, schema *feature.Schema, columns []string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s(", table))
	for i, c := range columns {
		kind := "REAL"
		if i < schema.Len() {
			if _, ok := schema.Feature(i).(*feature.DiscreteFeature); ok {
				kind = "TEXT"
			}
		}
		buf.WriteString(fmt.Sprintf("%s %s NULL, ", c, kind))
	}
	buf.WriteString(a.IDColumn())
	buf.WriteString(")")
	return buf.String()
}

func insertStatement(a Adapter, table string, columns []string, t dataset.Table, start, end int) (string, []interface{}) {
	var buf bytes.Buffer
	schema := t.Schema()
	args := make([]interface{}, 0, (end-start)*len(columns))
	buf.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", ")))
	for r := start; r < end; r++ {
		if r > start {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for j := range columns {
			if j > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(a.Placeholder(len(args) + 1))
			switch {
			case j == schema.Len():
				args = append(args, t.Target(r))
			default:
				if _, ok := schema.Feature(j).(*feature.DiscreteFeature); ok {
					args = append(args, schema.FormatValue(j, t.Value(r, j)))
				} else {
					args = append(args, t.Value(r, j))
				}
			}
		}
		buf.WriteString(")")
	}
	return buf.String(), args
}
