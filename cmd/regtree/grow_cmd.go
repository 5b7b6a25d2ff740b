package main

import (
	"fmt"

	"github.com/pbanos/regtree"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type growCmdConfig struct {
	*rootCmdConfig
	dataConfig
	growthConfig
	storeConfig
	output string
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow a tree from a set of data",
		Long:  `Grow a tree from a set of data to predict a certain response.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := config.Logger()
			schema, response, err := config.metadata()
			if err != nil {
				return err
			}
			trainingSet, err := config.frame(ctx, schema, response, logger)
			if err != nil {
				return err
			}
			p, err := config.params(schema, logger)
			if err != nil {
				return err
			}
			logger.Info("growing tree", zap.Int("samples", trainingSet.Len()), zap.Int("features", schema.Len()), zap.String("response", response))
			t, err := regtree.FitWith(ctx, trainingSet, p)
			if err != nil {
				return fmt.Errorf("growing the tree: %w", err)
			}
			logger.Info("grew tree", zap.Int("nodes", t.Len()), zap.Int("leaves", t.Leaves()), zap.Int("depth", t.Depth()))
			logger.Debug(t.String())
			if config.redisAddr != "" {
				s := config.store()
				defer s.Close(ctx)
				id, err := s.Create(ctx, t)
				if err != nil {
					return fmt.Errorf("storing the tree: %w", err)
				}
				logger.Info("stored tree", zap.String("id", id))
				if config.output == "" {
					fmt.Fprintln(cmd.OutOrStdout(), id)
					return nil
				}
			}
			return outputTree(config.output, t, cmd.OutOrStdout())
		},
	}
	config.dataConfig.addFlags(cmd, true)
	config.growthConfig.addFlags(cmd)
	config.storeConfig.addFlags(cmd)
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the generated tree will be written in JSON format (defaults to STDOUT, unless the tree is stored in Redis, then its ID is printed)")
	return cmd
}

func (gcc *growCmdConfig) Validate() error {
	if err := gcc.dataConfig.Validate(); err != nil {
		return err
	}
	if _, err := pruningStrategy(gcc.pruneStrategy); err != nil {
		return err
	}
	return nil
}
