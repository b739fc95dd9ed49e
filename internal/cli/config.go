package cli

import (
	"errors"
	"fmt"
	"os"

	"rewriter-cli/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigPathCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (the API key is redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if cfg.API.Key != "" {
				cfg.API.Key = "<redacted>"
			}
			return writeOut(cmd, app, map[string]any{"data": cfg})
		},
	}
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath(app.ConfigPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, statErr := os.Stat(path)
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"path": path, "exists": statErr == nil},
			})
		},
	}
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath(app.ConfigPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return writeErr(cmd, fmt.Errorf("%s already exists (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return writeErr(cmd, err)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return writeErr(cmd, fmt.Errorf("write config: %w", err))
			}
			app.log.Info("wrote config", "path", path)
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": path}})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (the old one is kept as .bak)")
	return cmd
}
