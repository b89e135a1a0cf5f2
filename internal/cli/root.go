// Package cli defines the task_tracker command tree.
package cli

import (
	"github.com/spf13/cobra"

	"task_tracker/internal/config"
	"task_tracker/pkg/logger"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "task_tracker",
		Short:         "Task and complaint tracker for managers and employees",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (default $CONFIG_FILE)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	return cmd
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(logger.Options{File: cfg.Log.File, Level: cfg.Log.Level}); err != nil {
		return nil, err
	}
	return cfg, nil
}
