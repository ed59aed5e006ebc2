// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/console"
	"github.com/stockroom/stockroom/internal/issue"
)

// consoleParams holds the dependencies and flag values for the console
// command.
type consoleParams struct {
	stdout io.Writer
	stderr io.Writer
	app    *App

	configPath string
	verbose    bool

	host string
	port int
	dir  string
}

// newConsoleCommand creates the `stockroom console` command, an SSH status
// console for inspecting a running setup from another terminal.
func newConsoleCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start the SSH status console",
		Long: `Start a local SSH server that renders a live status report to anyone
who connects with a valid token.

The console binds to loopback by default and authenticates with
single-use tokens. One token is minted at startup and printed below the
connect instruction; each connection consumes its token, so mint more by
restarting the console. Every session runs the same checks as
` + "`stockroom doctor`" + ` and renders the result, so a connect from a second
terminal answers "is the environment still good" without touching the
project.`,
		Example: `  # Start on loopback with an auto-selected port
  stockroom console

  # Pin the port
  stockroom console --port 2222`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			dir, _ := cmd.Flags().GetString("project")

			p := consoleParams{
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
				app:        app,
				configPath: rootFlags.configPath,
				verbose:    rootFlags.verbose,
				host:       host,
				port:       port,
				dir:        dir,
			}
			return runConsole(cmd.Context(), p)
		},
	}

	cmd.Flags().String("host", "127.0.0.1", "address to bind the console to")
	cmd.Flags().Int("port", 0, "port to listen on (0 selects a free port)")
	cmd.Flags().String("project", ".", "project directory the status report describes")

	return cmd
}

// runConsole starts the console, prints the connection card and blocks
// until the context is cancelled or the server fails.
func runConsole(ctx context.Context, p consoleParams) error {
	srv := console.New(console.Config{
		Host:   p.host,
		Port:   p.port,
		Status: statusReportFunc(p.app, p.dir, p.configPath),
	})

	if err := srv.Start(ctx); err != nil {
		renderServiceError(p.stderr, newServiceError(err,
			classifyListenError(err, issue.ConsoleStartFailedId),
			fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, p.verbose)),
		))
		return &ExitError{Code: 1, Err: err}
	}

	info, err := srv.GetConnectionInfo()
	if err != nil {
		_ = srv.Stop()
		return &ExitError{Code: 1, Err: fmt.Errorf("failed to mint console token: %w", err)}
	}

	fmt.Fprintln(p.stdout, bannerStyle.Render(connectionCard(info)))
	fmt.Fprintln(p.stdout, SubtitleStyle.Render("Press Ctrl+C to stop the console."))

	select {
	case <-ctx.Done():
	case err := <-srv.Err():
		if err != nil {
			_ = srv.Stop()
			return &ExitError{Code: 1, Err: err}
		}
	}

	if err := srv.Stop(); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}

// connectionCard renders the banner body: the connect command plus the
// token on its own line so the command can be copy-pasted without it.
func connectionCard(info *console.ConnectionInfo) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Stockroom status console"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Connect:  %s\n", CmdStyle.Render(info.String()))
	fmt.Fprintf(&b, "Token:    %s\n", info.Token)
	fmt.Fprintf(&b, "Expires:  %s", info.ExpireAt.Format("15:04:05 MST"))
	return b.String()
}

// statusReportFunc builds the per-session status text from a fresh doctor
// run so every connection sees current state.
func statusReportFunc(app *App, dir, configPath string) console.StatusFunc {
	return func(ctx context.Context) string {
		report, _, err := app.Doctor.Diagnose(ctx, DoctorRequest{
			Dir:        dir,
			ConfigPath: configPath,
		})
		if err != nil {
			return fmt.Sprintf("status unavailable: %v\n", err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "stockroom %s\n\n", getVersionString())
		b.WriteString(report.Summary())
		return b.String()
	}
}
