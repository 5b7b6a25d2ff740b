/*
Package mongodataset provides access to datasets stored as documents of a
MongoDB collection, one document per row.
*/
package mongodataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Collection is a MongoDB collection to which dataset rows can be added
and from which they can be sequentially read
*/
type Collection struct {
	session  *mgo.Session
	name     string
	schema   *feature.Schema
	response string
}

const (
	// DefaultCollectionName is the collection used when none is given to Open.
	DefaultCollectionName = "samples"
)

/*
Open takes a MongoDB database session, a collection name, a schema and
the name of the response and returns a Collection that works on the named
collection of the default database for that session, or an error if a
feature name cannot be used as a document field.
*/
func Open(session *mgo.Session, collection string, schema *feature.Schema, response string) (*Collection, error) {
	if collection == "" {
		collection = DefaultCollectionName
	}
	for _, name := range append(schema.Names(), response) {
		if name == "_id" {
			return nil, fmt.Errorf("invalid feature name %q: reserved collection field", "_id")
		}
		if strings.ContainsAny(name, ".$") {
			return nil, fmt.Errorf("invalid feature name %q: contains reserved characters %q or %q", name, ".", "$")
		}
	}
	return &Collection{session, collection, schema, response}, nil
}

/*
Write takes a context and a dataset.Table and inserts a document for each of
its rows. Continuous values and the response are stored as numbers, discrete
values as the name of their level. It returns the number of rows written.
*/
func (c *Collection) Write(ctx context.Context, t dataset.Table) (int, error) {
	docs := make([]interface{}, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		doc := bson.D{{Name: "_id", Value: bson.NewObjectId()}}
		for j, f := range c.schema.Features() {
			var value interface{} = t.Value(r, j)
			if _, ok := f.(*feature.DiscreteFeature); ok {
				value = c.schema.FormatValue(j, t.Value(r, j))
			}
			doc = append(doc, bson.DocElem{Name: f.Name(), Value: value})
		}
		doc = append(doc, bson.DocElem{Name: c.response, Value: t.Target(r)})
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	err := c.collection().Insert(docs...)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

/*
Read takes a context and returns a channel on which the documents of the
collection are sent, in insertion order, as records mapping feature names
and the response to their textual values, and a channel for the error that
stopped the reading, if any. Both channels are closed when reading ends.
*/
func (c *Collection) Read(ctx context.Context) (<-chan map[string]string, <-chan error) {
	records := make(chan map[string]string)
	errs := make(chan error, 1)
	names := append(c.schema.Names(), c.response)
	go func() {
		defer close(errs)
		defer close(records)
		var doc bson.M
		iter := c.collection().Find(nil).Sort("_id").Iter()
		defer iter.Close()
		for iter.Next(&doc) {
			record, err := Record(doc, names)
			if err != nil {
				errs <- err
				return
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case records <- record:
			}
			doc = nil
		}
		if err := iter.Err(); err != nil {
			errs <- err
		}
	}()
	return records, errs
}

/*
Frame reads every document of the collection and returns a dataset.Frame
with them.
*/
func (c *Collection) Frame(ctx context.Context) (*dataset.Frame, error) {
	b := dataset.NewBuilder(c.schema, c.response)
	records, errs := c.Read(ctx)
	var err error
	for record := range records {
		if err == nil {
			err = b.Add(record)
			if err != nil {
				err = fmt.Errorf("parsing document #%d: %v", b.Len(), err)
			}
		}
	}
	if rerr := <-errs; rerr != nil && err == nil {
		err = fmt.Errorf("reading documents: %v", rerr)
	}
	if err != nil {
		return nil, err
	}
	return b.Frame()
}

/*
Record takes a document and a list of field names and returns a record with
the textual value of each of those fields. Absent and null fields are
missing values.
*/
func Record(doc bson.M, names []string) (map[string]string, error) {
	record := make(map[string]string, len(names))
	for _, n := range names {
		switch v := doc[n].(type) {
		case nil:
			record[n] = feature.Missing
		case string:
			record[n] = v
		case float64:
			record[n] = strconv.FormatFloat(v, 'g', -1, 64)
		case int:
			record[n] = strconv.Itoa(v)
		case int64:
			record[n] = strconv.FormatInt(v, 10)
		case bool:
			record[n] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("unsupported value of type %T for field %s", v, n)
		}
	}
	return record, nil
}

func (c *Collection) collection() *mgo.Collection {
	return c.session.DB("").C(c.name)
}
