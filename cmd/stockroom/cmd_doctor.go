// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// errChecksFailed marks a doctor run that completed but found failing
// checks. It carries the exit status without duplicating the report text.
var errChecksFailed = errors.New("environment checks failed")

// doctorParams holds the dependencies and flag values for the doctor
// command.
type doctorParams struct {
	stdout  io.Writer
	stderr  io.Writer
	app     *App
	req     DoctorRequest
	verbose bool
}

// newDoctorCommand creates the `stockroom doctor` command.
func newDoctorCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the Python environment and data setup",
		Long: `Run read-only checks over a project and report what provisioning or
launching would trip over: the Python interpreter and its version, the
virtual environment layout, the dependency manifest, the server entrypoint
and the CSV data files.

The doctor never modifies anything. The exit status is 0 when no check
fails and 1 otherwise; warnings do not affect it.`,
		Example: `  # Check the current directory
  stockroom doctor

  # Check a specific project
  stockroom doctor --project ./inventory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			dir, _ := cmd.Flags().GetString("project")

			p := doctorParams{
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
				app:    app,
				req: DoctorRequest{
					Dir:        dir,
					ConfigPath: rootFlags.configPath,
				},
				verbose: rootFlags.verbose,
			}
			return runDoctor(cmd.Context(), p)
		},
	}

	cmd.Flags().String("project", ".", "project directory to inspect")

	return cmd
}

// runDoctor runs the checks and prints the rendered report. A report that
// contains failing checks maps to exit status 1.
func runDoctor(ctx context.Context, p doctorParams) error {
	report, diags, err := p.app.Doctor.Diagnose(ctx, p.req)
	p.app.Diagnostics.Render(ctx, diags, p.stderr)
	if err != nil {
		issueID, styled := classifyServiceError(err, p.verbose)
		renderServiceError(p.stderr, newServiceError(err, issueID, styled))
		return &ExitError{Code: 1, Err: err}
	}

	rendered, err := report.Render("dark")
	if err != nil {
		// Terminal rendering is best-effort; the plain summary carries the
		// same verdict.
		fmt.Fprint(p.stdout, report.Summary())
	} else {
		fmt.Fprint(p.stdout, rendered)
	}

	if !report.Healthy() {
		return &ExitError{Code: 1, Err: errChecksFailed}
	}
	return nil
}
