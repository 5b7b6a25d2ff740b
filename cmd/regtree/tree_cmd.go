package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type treeCmdConfig struct {
	*rootCmdConfig
	treeSourceConfig
}

func treeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &treeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show regression trees",
		Long:  `Show the structure of a regression tree`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			t, err := config.load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}
	config.addFlags(cmd)
	cmd.AddCommand(dotCmd(config), importanceCmd(config))
	return cmd
}

func dotCmd(config *treeCmdConfig) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Export a tree in Graphviz dot format",
		Long:  `Export the structure of a tree as a Graphviz dot digraph`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			t, err := config.load(cmd.Context())
			if err != nil {
				return err
			}
			d, err := t.Dot()
			if err != nil {
				return fmt.Errorf("exporting tree: %w", err)
			}
			if output != "" {
				return os.WriteFile(output, []byte(d), 0o644)
			}
			fmt.Fprint(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path to a file to write the dot digraph (defaults to STDOUT)")
	return cmd
}

func importanceCmd(config *treeCmdConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "importance",
		Short: "Show the importance of the features of a tree",
		Long: `Show the importance of each feature of a tree: the total reduction of the sum of
squared deviations achieved by the splits on it`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			t, err := config.load(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "feature\timportance")
			for i, v := range t.Importance() {
				fmt.Fprintf(w, "%s\t%g\n", t.Schema().Feature(i).Name(), v)
			}
			return w.Flush()
		},
	}
}
