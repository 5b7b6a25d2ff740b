package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pbanos/regtree/tree"
	tjson "github.com/pbanos/regtree/tree/json"
	"github.com/pbanos/regtree/tree/redisstore"
	"github.com/spf13/cobra"
	redis "gopkg.in/redis.v5"
)

/*
storeConfig holds the flags of the Redis server where trees can be stored.
Trees are kept in memory when no address is given.
*/
type storeConfig struct {
	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string
}

func (sc *storeConfig) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&(sc.redisAddr), "redis-addr", "", "address (host:port) of a Redis server to store trees in")
	cmd.PersistentFlags().StringVar(&(sc.redisPassword), "redis-password", "", "password for the Redis server")
	cmd.PersistentFlags().IntVar(&(sc.redisDB), "redis-db", 0, "Redis database to store trees in")
	cmd.PersistentFlags().StringVar(&(sc.redisPrefix), "redis-prefix", "regtree:trees", "prefix of the Redis keys of the trees")
}

func (sc *storeConfig) store() tree.Store {
	if sc.redisAddr == "" {
		return tree.NewMemoryStore()
	}
	rc := redis.NewClient(&redis.Options{
		Addr:     sc.redisAddr,
		Password: sc.redisPassword,
		DB:       sc.redisDB,
	})
	return redisstore.New(rc, sc.redisPrefix, tjson.EncodeDecoder{})
}

/*
treeSourceConfig holds the flags that locate a tree: a JSON file or the ID
of a tree in a Redis store.
*/
type treeSourceConfig struct {
	storeConfig
	treeInput string
	treeID    string
}

func (tsc *treeSourceConfig) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&(tsc.treeInput), "tree", "t", "", "path to a file from which the tree will be read and parsed as JSON")
	cmd.PersistentFlags().StringVar(&(tsc.treeID), "tree-id", "", "ID of the tree to load from Redis, instead of a file")
	tsc.storeConfig.addFlags(cmd)
}

func (tsc *treeSourceConfig) Validate() error {
	if tsc.treeInput == "" && tsc.treeID == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	if tsc.treeInput != "" && tsc.treeID != "" {
		return fmt.Errorf("cannot set both tree and tree-id flags at the same time")
	}
	if tsc.treeID != "" && tsc.redisAddr == "" {
		return fmt.Errorf("tree-id flag requires the redis-addr flag")
	}
	return nil
}

func (tsc *treeSourceConfig) load(ctx context.Context) (*tree.Tree, error) {
	if tsc.treeInput != "" {
		return loadTree(tsc.treeInput)
	}
	s := tsc.store()
	defer s.Close(ctx)
	t, err := s.Get(ctx, tsc.treeID)
	if err != nil {
		return nil, fmt.Errorf("retrieving tree %s: %w", tsc.treeID, err)
	}
	if t == nil {
		return nil, fmt.Errorf("tree %s not found", tsc.treeID)
	}
	return t, nil
}

func loadTree(filepath string) (*tree.Tree, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading tree in JSON from %s: %w", filepath, err)
	}
	defer f.Close()
	t, err := tjson.ReadJSONTree(f)
	if err != nil {
		err = fmt.Errorf("parsing tree in JSON from %s: %w", filepath, err)
	}
	return t, err
}

// outputTree writes the tree as JSON to the given path, or to w if empty.
func outputTree(outputPath string, t *tree.Tree, w io.Writer) error {
	buf := &bytes.Buffer{}
	if err := tjson.WriteJSONTree(t, buf); err != nil {
		return err
	}
	if outputPath == "" {
		_, err := buf.WriteTo(w)
		return err
	}
	return os.WriteFile(outputPath, buf.Bytes(), 0o644)
}
