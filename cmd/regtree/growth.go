package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/pbanos/regtree"
	"github.com/pbanos/regtree/feature"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// growthConfig holds the flags that set the parameters to grow trees.
type growthConfig struct {
	maxDepth      int
	maxNodes      int
	minLeafSize   int
	parallelism   int
	pruneStrategy string
	features      []string
}

func (gc *growthConfig) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().IntVar(&(gc.maxDepth), "max-depth", regtree.DefaultMaxDepth, "maximum depth of the nodes of the tree, the root being at depth 0")
	cmd.PersistentFlags().IntVar(&(gc.maxNodes), "max-nodes", regtree.DefaultMaxNodes, "maximum number of nodes of the tree")
	cmd.PersistentFlags().IntVar(&(gc.minLeafSize), "min-leaf-size", regtree.DefaultMinLeafSize, "minimum number of samples on each leaf")
	cmd.PersistentFlags().IntVar(&(gc.parallelism), "parallelism", runtime.GOMAXPROCS(0), "maximum number of split searches running at the same time")
	cmd.PersistentFlags().StringVarP(&(gc.pruneStrategy), "prune", "p", "none", "pruning strategy to apply, the following are valid: none, minimum-reduction:[FRACTION]")
	cmd.PersistentFlags().StringSliceVar(&(gc.features), "features", nil, "names of the features that can be used to split nodes (defaults to all)")
}

/*
params returns the growth parameters for the given schema, logging through
the given logger.
*/
func (gc *growthConfig) params(schema *feature.Schema, logger *zap.Logger) (regtree.Params, error) {
	p := regtree.Params{
		MaxDepth:    gc.maxDepth,
		MaxNodes:    gc.maxNodes,
		MinLeafSize: gc.minLeafSize,
		Parallelism: gc.parallelism,
		Logger:      logger,
	}
	pruner, err := pruningStrategy(gc.pruneStrategy)
	if err != nil {
		return p, err
	}
	p.Pruner = pruner
	for _, name := range gc.features {
		column, ok := schema.Index(name)
		if !ok {
			return p, fmt.Errorf("unknown feature %s", name)
		}
		p.Features = append(p.Features, column)
	}
	return p, p.Validate()
}

func pruningStrategy(ps string) (regtree.Pruner, error) {
	parsedPS := strings.Split(ps, ":")
	ps = parsedPS[0]
	psParams := parsedPS[1:]
	switch ps {
	case "", "none":
		return regtree.NoPruner(), nil
	case "minimum-reduction":
		if len(psParams) != 1 {
			return nil, fmt.Errorf("minimum-reduction pruning strategy takes exactly one parameter")
		}
		minimum, err := strconv.ParseFloat(psParams[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing minimum-reduction parameter: %w", err)
		}
		if minimum < 0 || minimum > 1 {
			return nil, fmt.Errorf("minimum-reduction parameter must be a fraction between 0 and 1")
		}
		return regtree.MinReductionPruner(minimum), nil
	}
	return nil, fmt.Errorf("unknown pruning strategy %s", ps)
}
