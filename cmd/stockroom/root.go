// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the root command's persistent flag values. One
// instance is shared by every subcommand constructor.
type rootFlagValues struct {
	// verbose enables verbose output.
	verbose bool
	// configPath is the explicit --config flag value.
	configPath string
}

// newRootCommand builds the root command and attaches all subcommands.
func newRootCommand(app *App) *cobra.Command {
	rootFlags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "stockroom",
		Short: "Provision and run the MCP inventory server",
		Long: TitleStyle.Render("stockroom") + SubtitleStyle.Render(" - Provision and run the MCP inventory server") + `

stockroom bootstraps a Python environment for the inventory MCP server:
it checks the host interpreter, creates the virtual environment, installs
dependencies from the project manifest, and hands the process over to the
server script. A native Go port of the server is built in for hosts
without Python.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Put requirements.txt and inventory_server.py in your project directory
  2. Run: stockroom provision
  3. Run: stockroom run

` + SubtitleStyle.Render("Examples:") + `
  stockroom provision       Create the venv and install dependencies
  stockroom run             Launch the Python inventory server
  stockroom serve           Serve the native MCP port over HTTP
  stockroom doctor          Diagnose the host and project state
  stockroom config show     Show current configuration`,
	}

	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "config file (default is $HOME/.config/stockroom/config.cue)")

	rootCmd.AddCommand(newProvisionCommand(app, rootFlags))
	rootCmd.AddCommand(newRunCommand(app, rootFlags))
	rootCmd.AddCommand(newServeCommand(app, rootFlags))
	rootCmd.AddCommand(newDoctorCommand(app, rootFlags))
	rootCmd.AddCommand(newConsoleCommand(app, rootFlags))
	rootCmd.AddCommand(newConfigCommand(app, rootFlags))
	rootCmd.AddCommand(newToolsCommand())

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App, attaches all child commands to the
// root command, and runs it. This is called by main.main(). It only needs
// to happen once.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
