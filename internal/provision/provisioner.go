// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stockroom/stockroom/internal/manifest"
	"github.com/stockroom/stockroom/internal/pipeline"
	"github.com/stockroom/stockroom/internal/pyenv"
	"github.com/stockroom/stockroom/pkg/types"
)

// Pipeline step names, in execution order. The hook steps only appear when
// the corresponding snippet is configured.
const (
	StepPreHook          = "pre-provision hook"
	StepCheckInterpreter = "check interpreter"
	StepCreateEnv        = "create environment"
	StepUpgradePip       = "upgrade pip"
	StepInstallDeps      = "install dependencies"
	StepPostHook         = "post-provision hook"
)

// ErrPythonTooOld is the sentinel error wrapped by PythonTooOldError.
var ErrPythonTooOld = errors.New("python version below required floor")

type (
	// Provisioner runs the provisioning pipeline over a project directory.
	// Construct with New.
	Provisioner struct {
		interp *pyenv.Interpreter
		config *Config
		logger *log.Logger
		stdout io.Writer
		stderr io.Writer
	}

	// Result describes a successfully provisioned environment.
	Result struct {
		// Env is the handle to the provisioned environment.
		Env *pyenv.Env

		// Version is the host interpreter version the environment was
		// created with.
		Version types.PythonVersion

		// Manifest is the dependency manifest that was installed.
		Manifest *manifest.Manifest

		// StepTimings records the wall-clock duration of each completed
		// step, in execution order.
		StepTimings []StepTiming
	}

	// StepTiming pairs a pipeline step with its duration.
	StepTiming struct {
		Name     string
		Duration time.Duration
	}

	// PythonTooOldError is returned when the host interpreter is older
	// than the configured floor. It wraps ErrPythonTooOld for errors.Is()
	// compatibility.
	PythonTooOldError struct {
		// Detected is the version the host interpreter reported.
		Detected types.PythonVersion
		// Required is the configured floor.
		Required types.PythonVersion
	}
)

// Error implements the error interface for PythonTooOldError.
func (e *PythonTooOldError) Error() string {
	return fmt.Sprintf("python %s detected, but %s or newer is required", e.Detected, e.Required)
}

// Unwrap returns ErrPythonTooOld for errors.Is() compatibility.
func (e *PythonTooOldError) Unwrap() error { return ErrPythonTooOld }

// New creates a Provisioner that provisions with the given interpreter.
// A nil cfg means DefaultConfig().
func New(interp *pyenv.Interpreter, cfg *Config) *Provisioner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "provision",
		})
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Provisioner{
		interp: interp,
		config: cfg,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}
}

// Config returns the provisioner's configuration.
func (p *Provisioner) Config() *Config {
	return p.config
}

// Provision runs the pipeline: check the interpreter, create the virtual
// environment, upgrade pip, install dependencies, with the configured hook
// snippets around the sequence. It halts at the first failure and returns a
// *pipeline.StepError naming the failed step. Partial state is left as is;
// re-running over an existing environment upgrades it in place.
func (p *Provisioner) Provision(ctx context.Context) (*Result, error) {
	env := pyenv.NewEnv(p.config.EnvRoot())
	result := &Result{Env: env}

	var steps []pipeline.Step
	if p.config.PreHook != "" {
		steps = append(steps, pipeline.Func(StepPreHook, func(ctx context.Context) error {
			return p.runHook(ctx, StepPreHook, p.config.PreHook, env)
		}))
	}
	steps = append(steps,
		pipeline.Func(StepCheckInterpreter, func(ctx context.Context) error {
			return p.checkInterpreter(ctx, result)
		}),
		pipeline.Func(StepCreateEnv, func(ctx context.Context) error {
			return p.interp.CreateEnv(ctx, env)
		}),
		pipeline.Func(StepUpgradePip, func(ctx context.Context) error {
			return p.pipClient(env).Upgrade(ctx)
		}),
		pipeline.Func(StepInstallDeps, func(ctx context.Context) error {
			return p.installDependencies(ctx, env, result)
		}),
	)
	if p.config.PostHook != "" {
		steps = append(steps, pipeline.Func(StepPostHook, func(ctx context.Context) error {
			return p.runHook(ctx, StepPostHook, p.config.PostHook, env)
		}))
	}

	runner := pipeline.NewRunner(steps...).WithObserver(p.observer(result))
	if err := runner.Run(ctx); err != nil {
		return nil, err
	}

	p.logger.Info("environment ready", "env", env.Root(), "python", result.Version)
	return result, nil
}

// checkInterpreter resolves the host interpreter version and asserts it
// meets the floor. The detected version is kept so failure messages and the
// final Result can surface it.
func (p *Provisioner) checkInterpreter(ctx context.Context, result *Result) error {
	minVersion := p.config.MinVersion
	if minVersion == (types.PythonVersion{}) {
		minVersion = DefaultMinVersion
	}

	version, err := p.interp.Version(ctx)
	if err != nil {
		return err
	}
	if !version.AtLeast(minVersion) {
		return &PythonTooOldError{Detected: version, Required: minVersion}
	}

	result.Version = version
	p.logger.Debug("interpreter accepted", "binary", p.interp.Path(), "version", version)
	return nil
}

// installDependencies locates the manifest and installs it into the
// environment. Detection happens inside the step, not up front, so a
// missing manifest fails the install step the same way a broken one does.
func (p *Provisioner) installDependencies(ctx context.Context, env *pyenv.Env, result *Result) error {
	m, err := p.loadManifest()
	if err != nil {
		return err
	}
	result.Manifest = m
	p.logger.Debug("manifest detected", "path", m.Path, "kind", m.Kind, "entries", len(m.Requirements))
	return p.pipClient(env).Install(ctx, m)
}

func (p *Provisioner) loadManifest() (*manifest.Manifest, error) {
	if p.config.ManifestPath != "" {
		return manifest.Load(p.config.ManifestPath)
	}
	return manifest.LoadDir(p.config.Dir)
}

// pipClient builds the pip client for env. Optional overrides are applied
// only when configured so the client keeps its own defaults otherwise.
func (p *Provisioner) pipClient(env *pyenv.Env) *pyenv.PipClient {
	opts := []pyenv.PipOption{pyenv.WithPipOutput(p.stdout, p.stderr)}
	if p.config.IndexURL != "" {
		opts = append(opts, pyenv.WithIndexURL(p.config.IndexURL))
	}
	if p.config.ExecCommand != nil {
		opts = append(opts, pyenv.WithPipExecCommand(p.config.ExecCommand))
	}
	return pyenv.NewPipClient(env, opts...)
}

// observer wires step logging and timing collection into the pipeline run.
func (p *Provisioner) observer(result *Result) pipeline.Observer {
	var started time.Time
	return pipeline.Observer{
		OnStepStart: func(_ int, name string) {
			started = time.Now()
			p.logger.Info("step started", "step", name)
		},
		OnStepDone: func(_ int, name string, err error) {
			elapsed := time.Since(started)
			if err != nil {
				p.logger.Error("step failed", "step", name, "duration", elapsed, "err", err)
				return
			}
			result.StepTimings = append(result.StepTimings, StepTiming{Name: name, Duration: elapsed})
			p.logger.Info("step finished", "step", name, "duration", elapsed)
		},
	}
}
