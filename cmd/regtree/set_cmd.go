package main

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/regtree/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type setCmdConfig struct {
	*rootCmdConfig
	dataConfig
	setOutput   string
	outputTable string
}

func setCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &setCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Manage sets of data",
		Long:  `Copy sets of data between CSV files, SQL databases and MongoDB collections`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			set, err := config.input(cmd)
			if err != nil {
				return err
			}
			count, err := writeTable(ctx, config.setOutput, config.outputTable, set, cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("writing output set: %w", err)
			}
			config.Logger().Info("copied set", zap.Int("samples", count), zap.String("output", redact(config.setOutput)))
			return nil
		},
	}
	config.dataConfig.addFlags(cmd, true)
	cmd.PersistentFlags().StringVarP(&(config.setOutput), "output", "o", "", "location to dump the output set: "+dataLocationHelp+" (defaults to STDOUT in CSV)")
	cmd.PersistentFlags().StringVar(&(config.outputTable), "output-table", "samples", "name of the SQL table or MongoDB collection of the output set")
	cmd.AddCommand(splitCmd(config))
	return cmd
}

func (scc *setCmdConfig) input(cmd *cobra.Command) (*dataset.Frame, error) {
	schema, response, err := scc.metadata()
	if err != nil {
		return nil, err
	}
	return scc.frame(cmd.Context(), schema, response, scc.Logger())
}

type splitCmdConfig struct {
	*setCmdConfig
	splitOutput      string
	splitTable       string
	splitProbability int
	seed             int64
}

func splitCmd(setConfig *setCmdConfig) *cobra.Command {
	config := &splitCmdConfig{setCmdConfig: setConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a set into two sets",
		Long:  `Split a set into an output set and a split set, for instance to hold out a test set`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			set, err := config.input(cmd)
			if err != nil {
				return err
			}
			kept, split := config.split(set.Len())
			count, err := writeTable(ctx, config.setOutput, config.outputTable, dataset.Subset(set, kept), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("writing output set: %w", err)
			}
			splitCount, err := writeTable(ctx, config.splitOutput, config.splitTable, dataset.Subset(set, split), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("writing split set: %w", err)
			}
			config.Logger().Info("split set", zap.Int("samples", set.Len()), zap.Int("output", count), zap.Int("split", splitCount))
			return nil
		},
	}
	cmd.Flags().StringVarP(&(config.splitOutput), "split-output", "s", "", "location to dump the split set: "+dataLocationHelp+" (required)")
	cmd.Flags().StringVar(&(config.splitTable), "split-table", "samples", "name of the SQL table or MongoDB collection of the split set")
	cmd.Flags().IntVarP(&(config.splitProbability), "split-probability", "p", 20, "probability as percent integer that a sample of the set will be assigned to the split set")
	cmd.Flags().Int64Var(&(config.seed), "seed", 1, "seed of the random assignment of samples to the split set")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if err := scc.setCmdConfig.Validate(); err != nil {
		return err
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.splitOutput == scc.setOutput && scc.splitTable == scc.outputTable {
		return fmt.Errorf("split-output and output flags cannot point to the same set")
	}
	if scc.splitProbability <= 0 || scc.splitProbability > 100 {
		return fmt.Errorf("split-probability flag was set to an invalid value: it must be set to an integer between 1 and 100")
	}
	return nil
}

// split assigns each of n rows to the output or the split set.
func (scc *splitCmdConfig) split(n int) ([]int, []int) {
	randomizer := rand.New(rand.NewSource(scc.seed))
	var kept, split []int
	for i := 0; i < n; i++ {
		if 100*randomizer.Float64() >= float64(scc.splitProbability) {
			kept = append(kept, i)
		} else {
			split = append(split, i)
		}
	}
	return kept, split
}
