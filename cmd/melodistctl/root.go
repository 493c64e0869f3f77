package main

import (
	"context"
	"fmt"
	"os"

	"melodist/config"
	"melodist/internal/app"

	"github.com/spf13/cobra"
)

// commandContext builds the shared application lazily so --help never touches the database.
type commandContext struct {
	configFlag *string
	app        *app.App
}

func (c *commandContext) ensureApp(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	if c.configFlag != nil && *c.configFlag != "" {
		if err := os.Setenv("MELODIST_CONFIG", *c.configFlag); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close() {
	if c.app != nil {
		_ = c.app.Close()
		c.app = nil
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	cc := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "melodistctl",
		Short:         "Melodist operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			cc.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newMigrateCommand(cc))
	rootCmd.AddCommand(newQueueCommand(cc))
	rootCmd.AddCommand(newStatusCommand(cc))
	rootCmd.AddCommand(newWalletCommand(cc))
	rootCmd.AddCommand(newUserCommand(cc))
	return rootCmd
}
