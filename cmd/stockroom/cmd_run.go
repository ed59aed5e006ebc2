// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/pyenv"
	"github.com/stockroom/stockroom/internal/watch"
)

type (
	// runParams bundles the dependencies and flags for the run command,
	// enabling the core logic in runLaunch and runWatchMode to be tested
	// without a real Cobra command.
	runParams struct {
		stdout io.Writer
		stderr io.Writer
		app    *App
		req    LaunchRequest
		watch  bool
	}

	// launchOutcome carries one launch attempt's results across the watch
	// loop's goroutine boundary.
	launchOutcome struct {
		result LaunchResult
		diags  []Diagnostic
		err    error
	}
)

// newRunCommand creates the `stockroom run` command, which validates the
// provisioned environment and starts the Python inventory server.
func newRunCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [-- server args...]",
		Short: "Validate the environment and launch the inventory server",
		Long: `Validate the provisioned environment and launch the inventory server.

The launcher checks that the virtual environment and the server script
exist, builds the activated environment, and starts the environment's
interpreter on the script. On Unix the launcher process is replaced by
the server (same PID); with --no-exec, --pty or --watch the server runs
as a child and its exit code is propagated verbatim.

Arguments after -- are passed through to the server script.`,
		Example: `  # Launch the server in the current directory
  stockroom run

  # Launch another project as a child process
  stockroom run --project ./srv --no-exec

  # Restart on file changes during development
  stockroom run --watch

  # Pass flags through to the server script
  stockroom run -- --debug`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			project, _ := cmd.Flags().GetString("project")
			noExec, _ := cmd.Flags().GetBool("no-exec")
			pty, _ := cmd.Flags().GetBool("pty")
			watchMode, _ := cmd.Flags().GetBool("watch")
			envFiles, _ := cmd.Flags().GetStringArray("env-file")

			p := runParams{
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
				app:    app,
				req: LaunchRequest{
					Dir:        project,
					Args:       args,
					EnvFiles:   envFiles,
					NoExec:     noExec,
					PTY:        pty,
					ConfigPath: rootFlags.configPath,
					Verbose:    rootFlags.verbose,
				},
				watch: watchMode,
			}
			if p.watch {
				return runWatchMode(cmd.Context(), p)
			}
			return runLaunch(cmd.Context(), p)
		},
	}

	cmd.Flags().String("project", "", "project directory holding the environment and server script")
	cmd.Flags().Bool("no-exec", false, "spawn the server as a child instead of replacing the process")
	cmd.Flags().Bool("pty", false, "run the server under a pseudo-terminal (implies --no-exec)")
	cmd.Flags().Bool("watch", false, "restart the server when project files change (implies --no-exec)")
	cmd.Flags().StringArrayP("env-file", "e", nil, "load environment variables from file(s) (can be specified multiple times)")

	return cmd
}

// runLaunch is the core launch logic, separated from Cobra for testability.
// In exec-replace mode it does not return on success.
func runLaunch(ctx context.Context, p runParams) error {
	result, diags, err := p.app.Launcher.Launch(ctx, p.req)
	p.app.Diagnostics.Render(ctx, diags, p.stderr)
	if err != nil {
		issueID, styled := classifyServiceError(err, p.req.Verbose)
		renderServiceError(p.stderr, newServiceError(err, issueID, styled))
		return &ExitError{Code: 1, Err: err}
	}

	if result.ExitCode != 0 {
		code := result.ExitCode
		if code.Validate() != nil {
			// A negative code means the child died on a signal; there is
			// no verbatim code to propagate.
			code = 1
		}
		return &ExitError{Code: code}
	}

	return nil
}

// runWatchMode launches the server as a child and restarts it whenever
// project files change. Exec-replace would drop the watcher together with
// the process image, so wait mode is forced. The loop blocks until the
// context is cancelled (e.g. Ctrl+C).
func runWatchMode(ctx context.Context, p runParams) error {
	p.req.NoExec = true

	appCfg, diags := loadConfigWithFallback(ctx, p.app.Config, p.req.ConfigPath)
	p.app.Diagnostics.Render(ctx, diags, p.stderr)

	dir := p.req.Dir
	if dir == "" {
		dir = "."
	}
	envDir := appCfg.Env.Dir.String()
	if envDir == "" {
		envDir = pyenv.DefaultEnvDir
	}

	// A buffered channel coalesces bursts: one pending restart is enough.
	restart := make(chan struct{}, 1)

	w, err := watch.New(watch.Config{
		Patterns: watch.DefaultPatterns(),
		Ignore:   watch.EnvDirIgnores(envDir),
		BaseDir:  dir,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(p.stdout, "%s Detected %d change(s)\n",
				VerboseHighlightStyle.Render("→"), len(changed))
			select {
			case restart <- struct{}{}:
			default:
			}
			return nil
		},
		Stdout: p.stdout,
		Stderr: p.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	watcherCtx, cancelWatcher := context.WithCancel(ctx)
	defer cancelWatcher()

	watcherDone := make(chan error, 1)
	go func() { watcherDone <- w.Run(watcherCtx) }()

	fmt.Fprintf(p.stdout, "%s Watch mode: restarting on changes (Ctrl+C to stop)\n\n",
		VerboseHighlightStyle.Render("→"))

	for {
		launchCtx, cancelLaunch := context.WithCancel(ctx)
		launchDone := make(chan launchOutcome, 1)
		go func() {
			result, diags, err := p.app.Launcher.Launch(launchCtx, p.req)
			launchDone <- launchOutcome{result: result, diags: diags, err: err}
		}()

		restartRequested := false
		var outcome launchOutcome
		select {
		case outcome = <-launchDone:
		case <-restart:
			restartRequested = true
			cancelLaunch()
			outcome = <-launchDone
		case <-ctx.Done():
			cancelLaunch()
			<-launchDone
			return nil
		}
		cancelLaunch()

		if !restartRequested {
			// The server stopped on its own. Report the outcome, then wait
			// for the next change before relaunching so a crash loop does
			// not spin.
			p.app.Diagnostics.Render(ctx, outcome.diags, p.stderr)
			if outcome.err != nil {
				issueID, styled := classifyServiceError(outcome.err, p.req.Verbose)
				renderServiceError(p.stderr, newServiceError(outcome.err, issueID, styled))
			} else if outcome.result.ExitCode != 0 {
				fmt.Fprintf(p.stderr, "%s Server exited with code %s\n",
					WarningStyle.Render("!"), outcome.result.ExitCode)
			}
			fmt.Fprintf(p.stdout, "\n%s Waiting for changes...\n\n", VerboseHighlightStyle.Render("→"))

			select {
			case <-restart:
			case <-ctx.Done():
				return nil
			case err := <-watcherDone:
				return err
			}
		}

		fmt.Fprintf(p.stdout, "\n%s Restarting the server...\n\n", VerboseHighlightStyle.Render("→"))
	}
}
