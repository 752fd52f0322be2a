package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cohis-dev/cohis/internal/config"
	"github.com/cohis-dev/cohis/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗╔═╗╦ ╦╦╔═╗
  ║  ║ ║╠═╣║╚═╗
  ╚═╝╚═╝╩ ╩╩╚═╝
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cohis",
		Short: "Overlay placement service for the COHIS dashboard",
		Long: `cohis serves the floating widgets of the COHIS administrative dashboard.

The browser streams document events over a WebSocket and the server
owns every tooltip, popconfirm and drawer:

  • Viewport-aware placement of floating elements
  • Outside-pointer dismissal
  • Stateless placement API
  • Upload storage on disk or S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file or directory (default: ./cohis.json or ./cohis.yaml if present)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		placeCmd(),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config named by path. An empty path uses the working
// directory's config file when there is one and defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if !config.Exists(".") {
			return config.New(), nil
		}
		path = "."
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return config.Load(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New("E100").WithSource(path).Wrap(err)
	}
	return config.LoadFile(abs)
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
