package main

import (
	"fmt"

	"github.com/pbanos/regtree"
	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/tree"
	"github.com/pbanos/regtree/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cvCmdConfig struct {
	*rootCmdConfig
	dataConfig
	growthConfig
	folds       int
	seed        int64
	concurrency int
	leaveOneOut bool
}

func cvCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &cvCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Cross validate the growth of trees",
		Long:  `Estimate the error of trees grown from a set of data by k-fold cross validation`,
		RunE:  config.run,
	}
	config.addFlags(cmd)
	cmd.PersistentFlags().IntVarP(&(config.folds), "folds", "k", 10, "number of folds")
	return cmd
}

func loocvCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &cvCmdConfig{rootCmdConfig: rootConfig, leaveOneOut: true}
	cmd := &cobra.Command{
		Use:   "loocv",
		Short: "Leave-one-out cross validate the growth of trees",
		Long:  `Estimate the error of trees grown from a set of data by leave-one-out cross validation`,
		RunE:  config.run,
	}
	config.addFlags(cmd)
	return cmd
}

func (ccc *cvCmdConfig) addFlags(cmd *cobra.Command) {
	ccc.dataConfig.addFlags(cmd, true)
	ccc.growthConfig.addFlags(cmd)
	cmd.PersistentFlags().Int64Var(&(ccc.seed), "seed", 0, "seed to shuffle the samples into folds (defaults to 0: keep them in order)")
	cmd.PersistentFlags().IntVar(&(ccc.concurrency), "concurrent-folds", 0, "maximum number of folds evaluated at the same time (defaults to 0: as many as usable CPUs)")
}

func (ccc *cvCmdConfig) Validate() error {
	if err := ccc.dataConfig.Validate(); err != nil {
		return err
	}
	if !ccc.leaveOneOut && ccc.folds < 2 {
		return fmt.Errorf("folds flag was set to an invalid value: it must be at least 2")
	}
	return nil
}

func (ccc *cvCmdConfig) run(cmd *cobra.Command, args []string) error {
	if err := ccc.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := ccc.Logger()
	schema, response, err := ccc.metadata()
	if err != nil {
		return err
	}
	set, err := ccc.frame(ctx, schema, response, logger)
	if err != nil {
		return err
	}
	p, err := ccc.params(schema, logger.Named("growth"))
	if err != nil {
		return err
	}
	g, err := regtree.New(p)
	if err != nil {
		return err
	}
	trainer := func(t dataset.Table) (*tree.Tree, error) {
		return g.Grow(ctx, t)
	}
	opts := validation.Options{Seed: ccc.seed, Parallelism: ccc.concurrency, Logger: logger}
	var result *validation.Result
	if ccc.leaveOneOut {
		logger.Info("leave-one-out cross validating", zap.Int("samples", set.Len()))
		result, err = validation.LOOCV(ctx, set, trainer, opts)
	} else {
		logger.Info("cross validating", zap.Int("samples", set.Len()), zap.Int("folds", ccc.folds))
		result, err = validation.CrossValidate(ctx, set, ccc.folds, trainer, opts)
	}
	if err != nil {
		return fmt.Errorf("cross validating: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
