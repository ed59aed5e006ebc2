// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/stockroom/stockroom/internal/config"
	"github.com/stockroom/stockroom/internal/doctor"
	"github.com/stockroom/stockroom/internal/launch"
	"github.com/stockroom/stockroom/internal/provision"
	"github.com/stockroom/stockroom/internal/pyenv"
	"github.com/stockroom/stockroom/pkg/types"

	"github.com/charmbracelet/log"
)

// Severity classifies a Diagnostic.
type Severity int

// Diagnostic severities.
const (
	// SeverityWarning flags a recoverable problem; the operation continued.
	SeverityWarning Severity = iota
	// SeverityError flags a problem the user must fix.
	SeverityError
)

type (
	// Diagnostic is a structured, user-renderable message produced while a
	// service runs. Services return diagnostics instead of writing to
	// stderr so the CLI layer controls all terminal output.
	Diagnostic struct {
		Severity Severity
		Message  string
		// Path is the file the diagnostic refers to, when known.
		Path string
		// Cause is the underlying error, when any.
		Cause error
	}

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer — all Cobra command handlers receive an App
	// reference and delegate business logic through its service interfaces
	// (Provisioner, Launcher, Doctor, Config).
	App struct {
		Config      ConfigProvider
		Provisioner ProvisionService
		Launcher    LaunchService
		Doctor      DoctorService
		Diagnostics DiagnosticRenderer
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp. Tests can supply mock implementations
	// to isolate specific service behavior.
	Dependencies struct {
		Config      ConfigProvider
		Provisioner ProvisionService
		Launcher    LaunchService
		Doctor      DoctorService
		Diagnostics DiagnosticRenderer
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ProvisionRequest captures all provisioning inputs as an immutable value.
	// It is the request-scoped data contract between the CLI layer (Cobra
	// handlers) and the ProvisionService implementation.
	ProvisionRequest struct {
		// Dir is the project directory to provision. Empty means the
		// current directory.
		Dir string
		// ManifestPath is the --manifest override. Empty means fixed-name
		// detection in Dir.
		ManifestPath string
		// IndexURL is the --index-url override for pip's package index.
		IndexURL string
		// PythonBinary is the --python override for interpreter discovery.
		PythonBinary string
		// ConfigPath is the explicit --config flag value.
		ConfigPath string
		// Verbose enables verbose diagnostic output.
		Verbose bool
	}

	// LaunchRequest captures all launch inputs for the run command.
	LaunchRequest struct {
		// Dir is the project directory holding the environment and the
		// server script. Empty means the current directory.
		Dir string
		// Args are extra arguments passed through to the server script.
		Args []string
		// EnvFiles are dotenv file paths from --env-file flags.
		EnvFiles []string
		// NoExec forces child-process mode even where exec-replace is
		// supported (--no-exec).
		NoExec bool
		// PTY runs the server under a pseudo-terminal (--pty).
		PTY bool
		// ConfigPath is the explicit --config flag value.
		ConfigPath string
		// Verbose enables verbose diagnostic output.
		Verbose bool
	}

	// LaunchResult contains launch outcomes. In exec-replace mode Launch
	// never returns on success, so ExitCode is only meaningful in wait mode.
	LaunchResult struct {
		ExitCode types.ExitCode
	}

	// DoctorRequest captures diagnosis inputs.
	DoctorRequest struct {
		// Dir is the project directory to inspect. Empty means the
		// current directory.
		Dir string
		// ConfigPath is the explicit --config flag value.
		ConfigPath string
	}

	// ProvisionService builds or refreshes a project's Python environment.
	// Implementations must not write progress to stdout/stderr beyond
	// subprocess passthrough; diagnostics are returned as structured data
	// for the CLI layer to render.
	ProvisionService interface {
		Provision(ctx context.Context, req ProvisionRequest) (*provision.Result, []Diagnostic, error)
	}

	// LaunchService validates the environment and starts the inventory server.
	LaunchService interface {
		Launch(ctx context.Context, req LaunchRequest) (LaunchResult, []Diagnostic, error)
	}

	// DoctorService probes the host and project and assembles a report.
	DoctorService interface {
		Diagnose(ctx context.Context, req DoctorRequest) (*doctor.Report, []Diagnostic, error)
	}

	// DiagnosticRenderer renders structured diagnostics.
	DiagnosticRenderer interface {
		Render(ctx context.Context, diags []Diagnostic, stderr io.Writer)
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources or mock implementations.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	appProvisionService struct {
		config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	appLaunchService struct {
		config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	appDoctorService struct {
		config ConfigProvider
	}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Provisioner == nil {
		deps.Provisioner = &appProvisionService{config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
	}
	if deps.Launcher == nil {
		deps.Launcher = &appLaunchService{config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
	}
	if deps.Doctor == nil {
		deps.Doctor = &appDoctorService{config: deps.Config}
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}

	return &App{
		Config:      deps.Config,
		Provisioner: deps.Provisioner,
		Launcher:    deps.Launcher,
		Doctor:      deps.Doctor,
		Diagnostics: deps.Diagnostics,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}, nil
}

// Provision derives provisioning inputs from configuration and flags, then
// runs the pipeline. Flag overrides beat config values.
func (s *appProvisionService) Provision(ctx context.Context, req ProvisionRequest) (*provision.Result, []Diagnostic, error) {
	appCfg, diags := loadConfigWithFallback(ctx, s.config, req.ConfigPath)

	cfg, err := provision.NewConfig(appCfg, req.Dir)
	if err != nil {
		return nil, diags, err
	}

	logger := log.NewWithOptions(s.stderr, log.Options{Prefix: "provision"})
	if req.Verbose || appCfg.UI.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	cfg.Apply(
		provision.WithLogger(logger),
		provision.WithOutput(s.stdout, s.stderr),
	)
	if req.PythonBinary != "" {
		cfg.Apply(provision.WithPythonBinary(req.PythonBinary))
	}
	if req.ManifestPath != "" {
		cfg.Apply(provision.WithManifestPath(req.ManifestPath))
	}
	if req.IndexURL != "" {
		cfg.Apply(provision.WithIndexURL(req.IndexURL))
	}

	interp := pyenv.Discover(cfg.PythonBinary)
	result, err := provision.New(interp, cfg).Provision(ctx)
	return result, diags, err
}

// Launch derives launch inputs from configuration and flags, validates the
// environment, and starts the server. In exec-replace mode it does not
// return on success.
func (s *appLaunchService) Launch(ctx context.Context, req LaunchRequest) (LaunchResult, []Diagnostic, error) {
	appCfg, diags := loadConfigWithFallback(ctx, s.config, req.ConfigPath)

	dir := req.Dir
	if dir == "" {
		dir = "."
	}
	envDir := appCfg.Env.Dir.String()
	if envDir == "" {
		envDir = pyenv.DefaultEnvDir
	}
	env := pyenv.NewEnv(envRootFor(dir, envDir))

	logger := log.NewWithOptions(s.stderr, log.Options{Prefix: "launch"})
	if req.Verbose || appCfg.UI.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	opts := []launch.Option{
		launch.WithDir(dir),
		launch.WithArgs(req.Args...),
		launch.WithEnvFiles(req.EnvFiles...),
		launch.WithPTY(req.PTY),
		launch.WithLogger(logger),
	}
	if entrypoint := appCfg.Server.Entrypoint.String(); entrypoint != "" {
		opts = append(opts, launch.WithEntrypoint(entrypoint))
	}
	// A PTY needs a child process to attach to, so it forces wait mode.
	if req.NoExec || req.PTY {
		opts = append(opts, launch.WithMode(launch.ModeWait))
	}

	code, err := launch.New(env, opts...).Launch(ctx)
	return LaunchResult{ExitCode: types.ExitCode(code)}, diags, err
}

// Diagnose runs the doctor checks with directories and overrides taken
// from configuration.
func (s *appDoctorService) Diagnose(ctx context.Context, req DoctorRequest) (*doctor.Report, []Diagnostic, error) {
	appCfg, diags := loadConfigWithFallback(ctx, s.config, req.ConfigPath)

	cfg := doctor.Config{
		Dir:          req.Dir,
		EnvDir:       appCfg.Env.Dir.String(),
		PythonBinary: appCfg.Python.Binary.String(),
		ManifestPath: appCfg.Manifest.Path.String(),
		Entrypoint:   appCfg.Server.Entrypoint.String(),
		DataDir:      appCfg.Server.DataDir.String(),
	}
	if spec := appCfg.Python.MinVersion; spec != "" {
		version, err := spec.Version()
		if err != nil {
			return nil, diags, fmt.Errorf("invalid python.min_version: %w", err)
		}
		cfg.MinVersion = version
	}

	return doctor.New(cfg).Run(ctx), diags, nil
}

// loadConfigWithFallback loads configuration via the provider. On failure it
// returns defaults with a diagnostic so callers stay operational.
//
// Diagnostic severity depends on the failure mode:
//   - Explicit --config path: always SeverityError (a user-specified file
//     must work).
//   - Default path with an existing but malformed file: SeverityError
//     (syntax errors in a file the user created should not be silently
//     downgraded to a warning).
//   - Default path with a missing config dir or similar infrastructure
//     error: SeverityWarning (common on fresh installs, defaults are
//     appropriate).
func loadConfigWithFallback(ctx context.Context, provider ConfigProvider, configPath string) (*config.Config, []Diagnostic) {
	cfg, err := provider.Load(ctx, config.LoadOptions{ConfigFilePath: types.FilesystemPath(configPath)})
	if err == nil {
		return cfg, nil
	}

	// When the user explicitly specified a config path, do not silently fall
	// back to defaults — surface the error as a diagnostic so downstream
	// callers can decide whether to abort.
	if configPath != "" {
		return config.DefaultConfig(), []Diagnostic{{
			Severity: SeverityError,
			Message:  fmt.Sprintf("failed to load config from %s: %v", configPath, err),
			Path:     configPath,
			Cause:    err,
		}}
	}

	// Default config path: the loader only returns errors for existing
	// files; missing files silently produce defaults. An os.ErrNotExist
	// here means the config dir itself could not be resolved.
	severity := SeverityError
	if errors.Is(err, os.ErrNotExist) {
		severity = SeverityWarning
	}

	return config.DefaultConfig(), []Diagnostic{{
		Severity: severity,
		Message:  fmt.Sprintf("failed to load config, using defaults: %v", err),
		Cause:    err,
	}}
}

// envRootFor resolves the environment root the same way the provisioner
// does: an absolute env dir wins, otherwise it is joined onto the project
// directory.
func envRootFor(dir, envDir string) string {
	cfg := provision.DefaultConfig()
	cfg.Dir = dir
	cfg.EnvDir = envDir
	return cfg.EnvRoot()
}

// Render writes structured diagnostics to stderr with lipgloss styling.
func (r *defaultDiagnosticRenderer) Render(_ context.Context, diags []Diagnostic, stderr io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		if diag.Path != "" {
			_, _ = fmt.Fprintf(stderr, "%s: %s (%s)\n", prefix, diag.Message, diag.Path)
			continue
		}

		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, diag.Message)
	}
}
