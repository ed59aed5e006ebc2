// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// provisionParams bundles the dependencies and flags for the provision
// command, enabling the core logic in runProvision to be tested without a
// real Cobra command.
type provisionParams struct {
	stdout io.Writer
	stderr io.Writer
	app    *App
	req    ProvisionRequest
}

// newProvisionCommand creates the `stockroom provision` command, which
// builds the project's Python environment.
func newProvisionCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the Python environment and install dependencies",
		Long: `Create the project's Python virtual environment and install its
dependencies.

Provisioning runs a fixed pipeline and stops at the first failure:

  1. check interpreter     assert Python meets the version floor
  2. create environment    python -m venv venv (reused when present)
  3. upgrade pip           python -m pip install --upgrade pip
  4. install dependencies  python -m pip install -r requirements.txt

Optional pre/post hooks from the configuration run around the pipeline.
There is no rollback: a failed run leaves the partial environment in
place and the next run continues from it.`,
		Example: `  # Provision the current directory
  stockroom provision

  # Provision another project with a pinned manifest
  stockroom provision --project ./srv --manifest requirements-prod.txt

  # Install from an internal mirror
  stockroom provision --index-url https://pypi.internal/simple`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			project, _ := cmd.Flags().GetString("project")
			manifestPath, _ := cmd.Flags().GetString("manifest")
			indexURL, _ := cmd.Flags().GetString("index-url")
			pythonBinary, _ := cmd.Flags().GetString("python")

			p := provisionParams{
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
				app:    app,
				req: ProvisionRequest{
					Dir:          project,
					ManifestPath: manifestPath,
					IndexURL:     indexURL,
					PythonBinary: pythonBinary,
					ConfigPath:   rootFlags.configPath,
					Verbose:      rootFlags.verbose,
				},
			}
			return runProvision(cmd.Context(), p)
		},
	}

	cmd.Flags().String("project", "", "project directory to provision (default is the current directory)")
	cmd.Flags().String("manifest", "", "dependency manifest (default: requirements.txt, then pyproject.toml)")
	cmd.Flags().String("index-url", "", "override pip's package index URL")
	cmd.Flags().String("python", "", "host interpreter to provision with (default: python3, then python)")

	return cmd
}

// runProvision is the core provisioning logic, separated from Cobra for testability.
func runProvision(ctx context.Context, p provisionParams) error {
	result, diags, err := p.app.Provisioner.Provision(ctx, p.req)
	p.app.Diagnostics.Render(ctx, diags, p.stderr)
	if err != nil {
		issueID, styled := classifyServiceError(err, p.req.Verbose)
		renderServiceError(p.stderr, newServiceError(err, issueID, styled))
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintf(p.stdout, "%s Environment ready at %s (Python %s)\n",
		SuccessStyle.Render("✓"), result.Env.Root(), result.Version)
	if result.Manifest != nil {
		fmt.Fprintf(p.stdout, "%s Installed %d dependencies from %s\n",
			SuccessStyle.Render("✓"), len(result.Manifest.Requirements), result.Manifest.Path)
	}
	if p.req.Verbose {
		for _, timing := range result.StepTimings {
			fmt.Fprintf(p.stdout, "  %s %-22s %s\n",
				VerboseStyle.Render("·"), timing.Name, timing.Duration.Round(time.Millisecond))
		}
	}

	return nil
}
