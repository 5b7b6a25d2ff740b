package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pbanos/regtree/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveCmdConfig struct {
	*rootCmdConfig
	storeConfig
	addr string
}

func serveCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &serveCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "serve [TREE FILE]...",
		Short: "Serve trees over HTTP",
		Long: `Serve trees over HTTP to predict samples with them. The trees in the given JSON
files are added to the store on start up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := config.Logger()
			if !config.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			s := config.store()
			defer s.Close(ctx)
			for _, path := range args {
				t, err := loadTree(path)
				if err != nil {
					return err
				}
				id, err := s.Create(ctx, t)
				if err != nil {
					return fmt.Errorf("storing tree from %s: %w", path, err)
				}
				logger.Info("loaded tree", zap.String("path", path), zap.String("id", id))
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, path)
			}
			return server.New(s, logger).Run(ctx, config.addr)
		},
	}
	config.storeConfig.addFlags(cmd)
	cmd.PersistentFlags().StringVarP(&(config.addr), "addr", "a", ":8080", "address to listen on")
	return cmd
}

func (scc *serveCmdConfig) Validate() error {
	if scc.addr == "" {
		return fmt.Errorf("required addr flag was not set")
	}
	return nil
}
