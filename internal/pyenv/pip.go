// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/stockroom/stockroom/internal/manifest"
)

type (
	// PipOption configures a PipClient.
	PipOption func(*PipClient)

	// PipClient runs package-installer operations through the
	// environment's interpreter (`<env python> -m pip ...`), so installs
	// always target the environment regardless of what PATH resolves.
	PipClient struct {
		env         *Env
		indexURL    string
		stdout      io.Writer
		stderr      io.Writer
		execCommand ExecCommandFunc
	}
)

// WithIndexURL overrides the package index for every pip invocation,
// exported to the subprocess as PIP_INDEX_URL.
func WithIndexURL(url string) PipOption {
	return func(c *PipClient) {
		c.indexURL = url
	}
}

// WithPipOutput directs pip's stdout and stderr to the given writers.
// Installer output is discarded by default.
func WithPipOutput(stdout, stderr io.Writer) PipOption {
	return func(c *PipClient) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithPipExecCommand sets a custom exec command function for testing.
func WithPipExecCommand(fn ExecCommandFunc) PipOption {
	return func(c *PipClient) {
		c.execCommand = fn
	}
}

// NewPipClient creates a pip client bound to the given environment.
func NewPipClient(env *Env, opts ...PipOption) *PipClient {
	c := &PipClient{
		env:         env,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upgrade upgrades pip itself inside the environment.
func (c *PipClient) Upgrade(ctx context.Context) error {
	return c.run(ctx, "-m", "pip", "install", "--upgrade", "pip")
}

// Install installs the manifest's dependencies into the environment.
// Requirements manifests install via `-m pip install -r <path>`;
// pyproject manifests install the project directory itself so pip reads
// the PEP 621 metadata. An empty manifest still runs and succeeds.
func (c *PipClient) Install(ctx context.Context, m *manifest.Manifest) error {
	if m.Kind == manifest.KindPyproject {
		return c.run(ctx, "-m", "pip", "install", filepath.Dir(m.Path))
	}
	return c.run(ctx, "-m", "pip", "install", "-r", m.Path)
}

// run executes the environment interpreter with the given arguments.
func (c *PipClient) run(ctx context.Context, args ...string) error {
	python := c.env.Python()

	cmd := c.execCommand(ctx, python, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if c.indexURL != "" {
		cmd.Env = append(os.Environ(), "PIP_INDEX_URL="+c.indexURL)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", python, args, err)
	}
	return nil
}
