package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cohis-dev/cohis/internal/config"
	"github.com/cohis-dev/cohis/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default configuration file",
		Long: `Write a configuration file with every default filled in.

Examples:
  cohis init
  cohis init deploy --format=yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, format, force)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "File format (json, yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config")

	return cmd
}

func runInit(cmd *cobra.Command, dir, format string, force bool) error {
	name := config.ConfigFileName
	switch format {
	case "json":
	case "yaml", "yml":
		name = config.YAMLConfigFileName
	default:
		return errors.New("E120").
			WithSource("--format").
			WithDetail("Unknown format " + format).
			WithSuggestion("Use json or yaml")
	}

	if !force && config.Exists(dir) {
		return errors.New("E122").
			WithSource(dir).
			WithSuggestion("Pass --force to overwrite it")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("E101").WithSource(dir).Wrap(err)
	}

	path := filepath.Join(dir, name)
	if err := config.New().SaveTo(path); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	success(w, "Wrote %s", path)
	info(w, "Start the server with: cohis serve --config=%s", path)
	return nil
}
