package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type rootCmdConfig struct {
	verbose    bool
	configFile string
	logger     *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	config := &rootCmdConfig{}
	err := cliParser(config).ExecuteContext(ctx)
	if config.logger != nil {
		_ = config.logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

func cliParser(config *rootCmdConfig) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "regtree",
		Short: "regtree is a tool to perform tree-regression",
		Long:  `A tool to grow regression trees from your data, test them, and use them to make predictions`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.loadSettings(cmd); err != nil {
				return err
			}
			return config.initLogger()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log the progress of commands")
	rootCmd.PersistentFlags().StringVar(&(config.configFile), "config", "", "path to a YAML file with values for the flags of the command, which can also be set with REGTREE_ prefixed environment variables")
	rootCmd.AddCommand(
		versionCmd(),
		growCmd(config),
		predictCmd(config),
		testCmd(config),
		cvCmd(config),
		loocvCmd(config),
		treeCmd(config),
		setCmd(config),
		serveCmd(config),
	)
	return rootCmd
}

/*
loadSettings sets the flags of the command that were not given in the
command line from the config file or the environment.
*/
func (rcc *rootCmdConfig) loadSettings(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("REGTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if rcc.configFile != "" {
		v.SetConfigFile(rcc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", rcc.configFile, err)
		}
	}
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == "config" || !v.IsSet(f.Name) {
			return
		}
		if serr := cmd.Flags().Set(f.Name, v.GetString(f.Name)); serr != nil {
			err = fmt.Errorf("setting %s from configuration: %w", f.Name, serr)
		}
	})
	return err
}

func (rcc *rootCmdConfig) initLogger() error {
	var err error
	if rcc.verbose {
		rcc.logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		rcc.logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	return nil
}

// Logger returns the logger of the command, a nop one before it runs.
func (rcc *rootCmdConfig) Logger() *zap.Logger {
	if rcc.logger == nil {
		return zap.NewNop()
	}
	return rcc.logger
}
