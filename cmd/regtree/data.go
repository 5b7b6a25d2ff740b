package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/dataset/csv"
	"github.com/pbanos/regtree/dataset/mongodataset"
	"github.com/pbanos/regtree/dataset/sqldataset"
	"github.com/pbanos/regtree/dataset/sqldataset/pgadapter"
	"github.com/pbanos/regtree/dataset/sqldataset/sqlite3adapter"
	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/feature/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	mgo "gopkg.in/mgo.v2"
)

const dataLocationHelp = "a CSV (.csv) or SQLite3 (.db) file path, or a PostgreSQL (postgresql://) or MongoDB (mongodb://) URL"

/*
dataConfig holds the flags that locate a dataset: where it is stored, the
table or collection holding it and, unless a tree provides them, the
metadata describing its features and response.
*/
type dataConfig struct {
	dataInput     string
	metadataInput string
	response      string
	table         string
}

func (dc *dataConfig) addFlags(cmd *cobra.Command, withMetadata bool) {
	cmd.PersistentFlags().StringVarP(&(dc.dataInput), "input", "i", "", "location of the dataset: "+dataLocationHelp+" (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVar(&(dc.table), "table", "samples", "name of the SQL table or MongoDB collection holding the dataset")
	if withMetadata {
		cmd.PersistentFlags().StringVarP(&(dc.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features available on the dataset (required)")
		cmd.PersistentFlags().StringVarP(&(dc.response), "response", "r", "", "name of the column the tree should predict (defaults to the response in the metadata)")
	}
}

// Validate requires the metadata flag, for commands that take it.
func (dc *dataConfig) Validate() error {
	if dc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}

// metadata reads the schema and the response from the metadata file.
func (dc *dataConfig) metadata() (*feature.Schema, string, error) {
	md, err := yaml.ReadMetadataFromFile(dc.metadataInput)
	if err != nil {
		return nil, "", err
	}
	response := dc.response
	if response == "" {
		response = md.Response
	}
	if response == "" {
		return nil, "", fmt.Errorf("no response to predict: set the response flag or declare it in %s", dc.metadataInput)
	}
	if _, ok := md.Schema.Index(response); ok {
		return nil, "", fmt.Errorf("response %s cannot be one of the features", response)
	}
	return md.Schema, response, nil
}

// frame loads the dataset into memory.
func (dc *dataConfig) frame(ctx context.Context, schema *feature.Schema, response string, logger *zap.Logger) (*dataset.Frame, error) {
	logger = logger.With(zap.String("input", redact(dc.dataInput)))
	var f *dataset.Frame
	var err error
	switch location := dc.dataInput; {
	case isMongoURL(location):
		logger.Info("reading dataset from MongoDB", zap.String("collection", dc.table))
		f, err = mongoFrame(ctx, location, dc.table, schema, response)
	case isSQLLocation(location):
		logger.Info("reading dataset from SQL table", zap.String("table", dc.table))
		var a sqldataset.Adapter
		a, err = sqlAdapter(location)
		if err != nil {
			return nil, err
		}
		defer a.Close()
		f, err = sqldataset.Load(ctx, a, dc.table, schema, response)
	default:
		logger.Info("reading dataset from CSV")
		f, err = csv.ReadFrameFromFilePath(location, schema, response)
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	logger.Info("read dataset", zap.Int("rows", f.Len()), zap.Int("features", schema.Len()))
	return f, nil
}

/*
writeTable writes the rows of a table into the given location and returns
the number of rows written, creating the CSV file, SQL table or MongoDB
collection as needed. An empty location writes CSV to w.
*/
func writeTable(ctx context.Context, location, table string, t dataset.Table, w io.Writer) (int, error) {
	switch {
	case isMongoURL(location):
		session, err := mgo.Dial(location)
		if err != nil {
			return 0, fmt.Errorf("connecting to MongoDB: %w", err)
		}
		defer session.Close()
		c, err := mongodataset.Open(session, table, t.Schema(), t.Response())
		if err != nil {
			return 0, err
		}
		return c.Write(ctx, t)
	case isSQLLocation(location):
		a, err := sqlAdapter(location)
		if err != nil {
			return 0, err
		}
		defer a.Close()
		return sqldataset.Write(ctx, a, table, t)
	}
	if location != "" {
		f, err := os.Create(location)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		w = f
	}
	cw, err := csv.NewWriter(w, t.Schema(), t.Response())
	if err != nil {
		return 0, err
	}
	for i := 0; i < t.Len(); i++ {
		if err = cw.Write(dataset.Row(t, i), t.Target(i)); err != nil {
			return cw.Count(), err
		}
	}
	return cw.Count(), cw.Flush()
}

func mongoFrame(ctx context.Context, url, collection string, schema *feature.Schema, response string) (*dataset.Frame, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	defer session.Close()
	c, err := mongodataset.Open(session, collection, schema, response)
	if err != nil {
		return nil, err
	}
	return c.Frame(ctx)
}

func isMongoURL(location string) bool {
	return strings.HasPrefix(location, "mongodb://")
}

func isPostgreSQLURL(location string) bool {
	return strings.HasPrefix(location, "postgresql://") || strings.HasPrefix(location, "postgres://")
}

func isSQLLocation(location string) bool {
	return isPostgreSQLURL(location) || strings.HasSuffix(location, ".db")
}

func sqlAdapter(location string) (sqldataset.Adapter, error) {
	if isPostgreSQLURL(location) {
		return pgadapter.New(location)
	}
	return sqlite3adapter.New(location)
}

// redact hides the password of a database URL.
func redact(location string) string {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return location
	}
	credentials, host, ok := strings.Cut(rest, "@")
	if !ok {
		return location
	}
	if user, _, ok := strings.Cut(credentials, ":"); ok {
		return scheme + "://" + user + ":xxxxx@" + host
	}
	return location
}
