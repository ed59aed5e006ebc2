// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/stockroom/stockroom/internal/config"
	"github.com/stockroom/stockroom/internal/pyenv"
	"github.com/stockroom/stockroom/pkg/types"
)

type (
	// Config holds the inputs for provisioning a project environment.
	Config struct {
		// Dir is the project directory to provision.
		// Default: the current directory.
		Dir string

		// EnvDir is the virtual environment directory, joined onto Dir
		// unless absolute. Default: "venv".
		EnvDir string

		// PythonBinary overrides interpreter discovery.
		// If empty, the default candidates are searched on PATH.
		PythonBinary string

		// MinVersion is the interpreter version floor.
		// The zero value means DefaultMinVersion.
		MinVersion types.PythonVersion

		// ManifestPath pins the dependency manifest.
		// If empty, fixed-name detection runs in Dir.
		ManifestPath string

		// IndexURL overrides pip's package index.
		// When empty, pip uses its default index.
		IndexURL string

		// PreHook is a shell snippet run before the first pipeline step.
		// Empty means no hook.
		PreHook string

		// PostHook is a shell snippet run after the last pipeline step.
		// Empty means no hook.
		PostHook string

		// Logger receives step progress. If nil, a stderr logger is used.
		Logger *log.Logger

		// Stdout and Stderr receive subprocess and hook output.
		// If nil, the process's own streams are used.
		Stdout io.Writer
		Stderr io.Writer

		// ExecCommand overrides subprocess creation. Tests use this to
		// substitute a fake; nil means real subprocesses.
		ExecCommand pyenv.ExecCommandFunc
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultMinVersion is the interpreter floor the inventory server needs.
var DefaultMinVersion = types.PythonVersion{Major: 3, Minor: 10}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dir:        ".",
		EnvDir:     pyenv.DefaultEnvDir,
		MinVersion: DefaultMinVersion,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// NewConfig derives a provisioning Config from the application configuration.
// dir overrides the project directory when non-empty.
func NewConfig(appCfg *config.Config, dir string) (*Config, error) {
	cfg := DefaultConfig()
	if dir != "" {
		cfg.Dir = dir
	}
	if appCfg == nil {
		return cfg, nil
	}

	cfg.PythonBinary = appCfg.Python.Binary.String()
	if spec := appCfg.Python.MinVersion.String(); spec != "" {
		version, err := types.ParsePythonVersion(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid python.min_version: %w", err)
		}
		cfg.MinVersion = version
	}
	if envDir := appCfg.Env.Dir.String(); envDir != "" {
		cfg.EnvDir = envDir
	}
	cfg.ManifestPath = appCfg.Manifest.Path.String()
	cfg.IndexURL = appCfg.Pip.IndexURL.String()
	cfg.PreHook = appCfg.Hooks.PreProvision.String()
	cfg.PostHook = appCfg.Hooks.PostProvision.String()
	return cfg, nil
}

// WithPythonBinary returns an Option that sets PythonBinary on the config.
func WithPythonBinary(binary string) Option {
	return func(c *Config) {
		c.PythonBinary = binary
	}
}

// WithManifestPath returns an Option that sets ManifestPath on the config.
func WithManifestPath(path string) Option {
	return func(c *Config) {
		c.ManifestPath = path
	}
}

// WithIndexURL returns an Option that sets IndexURL on the config.
func WithIndexURL(url string) Option {
	return func(c *Config) {
		c.IndexURL = url
	}
}

// WithHooks returns an Option that sets the pre and post hook snippets.
func WithHooks(pre, post string) Option {
	return func(c *Config) {
		c.PreHook = pre
		c.PostHook = post
	}
}

// WithLogger returns an Option that sets Logger on the config.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithOutput returns an Option that sets the subprocess output writers.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Config) {
		c.Stdout = stdout
		c.Stderr = stderr
	}
}

// WithExecCommand returns an Option that overrides subprocess creation.
func WithExecCommand(fn pyenv.ExecCommandFunc) Option {
	return func(c *Config) {
		c.ExecCommand = fn
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// EnvRoot returns the virtual environment root directory, joining EnvDir
// onto Dir unless EnvDir is absolute.
func (c *Config) EnvRoot() string {
	envDir := c.EnvDir
	if envDir == "" {
		envDir = pyenv.DefaultEnvDir
	}
	if filepath.IsAbs(envDir) {
		return envDir
	}
	return filepath.Join(c.Dir, envDir)
}
