package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbanos/regtree/dataset/csv"
	"github.com/pbanos/regtree/dataset/inputsample"
	"github.com/pbanos/regtree/feature"
	"github.com/pbanos/regtree/tree"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type predictCmdConfig struct {
	*rootCmdConfig
	treeSourceConfig
	dataInput      string
	output         string
	column         string
	undefinedValue string
	interactive    bool
}

type featureValueRequester struct {
	w              io.Writer
	undefinedValue string
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the response for samples",
		Long: `Use a tree to predict the response for the samples of a CSV file, or for a sample
answering a reduced set of questions about its features`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			t, err := config.load(cmd.Context())
			if err != nil {
				return err
			}
			if config.interactive {
				sample := inputsample.New(cmd.InOrStdin(), t.Schema(), &featureValueRequester{cmd.OutOrStdout(), config.undefinedValue}, config.undefinedValue)
				prediction, err := t.PredictSample(sample)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Predicted %s is %g\n", t.Response(), prediction)
				return nil
			}
			return config.predictSamples(t, cmd.OutOrStdout())
		},
	}
	config.treeSourceConfig.addFlags(cmd)
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to a CSV file with the samples to predict (defaults to STDIN)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a CSV file to write the samples with their predictions (defaults to STDOUT)")
	cmd.PersistentFlags().StringVar(&(config.column), "column", "", "name of the prediction column of the output (defaults to the response of the tree)")
	cmd.PersistentFlags().BoolVar(&(config.interactive), "interactive", false, "predict a single sample asking for the values of its features on STDIN")
	cmd.PersistentFlags().StringVarP(&(config.undefinedValue), "undefined-value", "u", feature.Missing, "value to input to define a sample's value for a feature as undefined")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if err := pcc.treeSourceConfig.Validate(); err != nil {
		return err
	}
	if pcc.interactive && pcc.dataInput != "" {
		return fmt.Errorf("cannot set both interactive and input flags at the same time")
	}
	return nil
}

func (pcc *predictCmdConfig) predictSamples(t *tree.Tree, stdout io.Writer) error {
	samples, err := csv.ReadSamplesFromFilePath(pcc.dataInput, t.Schema())
	if err != nil {
		return err
	}
	w := stdout
	if pcc.output != "" {
		f, err := os.Create(pcc.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	column := pcc.column
	if column == "" {
		column = t.Response()
	}
	cw, err := csv.NewWriter(w, t.Schema(), column)
	if err != nil {
		return err
	}
	for i, s := range samples {
		prediction, err := t.Predict(s)
		if err != nil {
			return fmt.Errorf("predicting sample #%d: %w", i, err)
		}
		if err = cw.Write(s, prediction); err != nil {
			return err
		}
	}
	pcc.Logger().Info("predicted samples", zap.Int("samples", cw.Count()))
	return cw.Flush()
}

func (fvr *featureValueRequester) RequestValueFor(f feature.Feature) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Fprintf(fvr.w, "Please provide the sample's %s:\n(valid values are %s or %s if undefined)\n", f.Name(), strings.Join(f.Levels(), ", "), fvr.undefinedValue)
	case *feature.ContinuousFeature:
		fmt.Fprintf(fvr.w, "Please provide the sample's %s:\n(valid values are real numbers or %s if undefined)\n", f.Name(), fvr.undefinedValue)
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}

func (fvr *featureValueRequester) RejectValueFor(f feature.Feature, value string) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Fprintf(fvr.w, "%s is not a valid value for the sample's %s. Please provide one of %s or %s if undefined.\n", value, f.Name(), strings.Join(f.Levels(), ", "), fvr.undefinedValue)
	case *feature.ContinuousFeature:
		fmt.Fprintf(fvr.w, "%s is not a valid value for the sample's %s. Please provide a real number or %s if undefined.\n", value, f.Name(), fvr.undefinedValue)
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}
