package main

import (
	"fmt"

	"github.com/pbanos/regtree/dataset"
	"github.com/pbanos/regtree/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type testCmdConfig struct {
	*rootCmdConfig
	treeSourceConfig
	dataConfig
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a tree",
		Long:  `Test the performance of a tree against a test data set with known responses`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			t, err := config.load(ctx)
			if err != nil {
				return err
			}
			testingSet, err := config.frame(ctx, t.Schema(), t.Response(), config.Logger())
			if err != nil {
				return err
			}
			config.Logger().Info("testing tree", zap.Int("samples", testingSet.Len()))
			predictions, err := t.PredictTable(testingSet)
			if err != nil {
				return fmt.Errorf("testing tree: %w", err)
			}
			truth := dataset.Targets(testingSet)
			mse, err := validation.MSE(predictions, truth)
			if err != nil {
				return err
			}
			rmse, err := validation.RMSE(predictions, truth)
			if err != nil {
				return err
			}
			mae, err := validation.MAE(predictions, truth)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "RMSE = %g, MSE = %g, MAE = %g over %d samples\n", rmse, mse, mae, len(truth))
			return nil
		},
	}
	config.treeSourceConfig.addFlags(cmd)
	config.dataConfig.addFlags(cmd, false)
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	return tcc.treeSourceConfig.Validate()
}
