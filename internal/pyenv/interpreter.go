// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/stockroom/stockroom/internal/issue"
	"github.com/stockroom/stockroom/pkg/types"
)

// DefaultCandidates are the interpreter names probed on PATH, in order,
// when no explicit binary is configured.
var DefaultCandidates = []string{"python3", "python"}

// ErrPythonNotFound is returned when no interpreter candidate resolves to
// a usable binary.
var ErrPythonNotFound = errors.New("python interpreter not found")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// InterpreterOption configures an Interpreter.
	InterpreterOption func(*Interpreter)

	// Interpreter wraps a host Python binary behind its CLI. All
	// interaction goes through subprocess invocations (--version probes,
	// venv creation), so the binary path is the only state it carries.
	Interpreter struct {
		binaryPath  string
		candidates  []string
		execCommand ExecCommandFunc
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) InterpreterOption {
	return func(it *Interpreter) {
		it.execCommand = fn
	}
}

// NewInterpreter creates an Interpreter for a known binary path. The path
// is used as-is; most callers want Discover, which probes PATH first.
// An empty path yields an unavailable interpreter whose operations fail
// with ErrPythonNotFound.
func NewInterpreter(binaryPath string, opts ...InterpreterOption) *Interpreter {
	it := &Interpreter{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Discover resolves a host Python binary via exec.LookPath. When explicit
// is non-empty it is the only candidate tried, so a configured binary is
// never silently substituted; otherwise DefaultCandidates are probed in
// order. A failed lookup is not fatal here: the returned Interpreter
// reports Available() == false, and Version returns an actionable error
// listing the candidates tried.
func Discover(explicit string, opts ...InterpreterOption) *Interpreter {
	candidates := DefaultCandidates
	if explicit != "" {
		candidates = []string{explicit}
	}

	binaryPath := ""
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			binaryPath = path
			break
		}
	}

	it := NewInterpreter(binaryPath, opts...)
	it.candidates = candidates
	return it
}

// Path returns the resolved interpreter path, or "" when discovery failed.
func (it *Interpreter) Path() string {
	return it.binaryPath
}

// Available reports whether the binary resolved and answers a version probe.
func (it *Interpreter) Available() bool {
	if it.binaryPath == "" {
		return false
	}
	cmd := it.execCommand(context.Background(), it.binaryPath, "--version")
	return cmd.Run() == nil
}

// Version runs `<python> --version` and parses the reported version.
// Stdout and stderr are read together: Python 2 prints the banner on
// stderr. Unparseable output yields *types.InvalidPythonVersionError
// carrying the raw text.
func (it *Interpreter) Version(ctx context.Context) (types.PythonVersion, error) {
	if it.binaryPath == "" {
		return types.PythonVersion{}, it.notFoundError()
	}

	out, err := it.runCombined(ctx, "--version")
	if err != nil {
		return types.PythonVersion{}, err
	}

	version, err := types.ParsePythonVersion(strings.TrimSpace(string(out)))
	if err != nil {
		return types.PythonVersion{}, err
	}
	return version, nil
}

// CreateEnv creates a virtual environment at the env root by running
// `<python> -m venv <root>`. The root is not cleaned first: when the path
// already exists venv either reuses it in place or fails, and that
// failure is surfaced as-is.
func (it *Interpreter) CreateEnv(ctx context.Context, env *Env) error {
	if it.binaryPath == "" {
		return it.notFoundError()
	}
	_, err := it.runCombined(ctx, "-m", "venv", env.Root())
	return err
}

// runCombined executes the interpreter with the given arguments and
// returns combined stdout/stderr. On failure the command's own output is
// appended to the error so subprocess diagnostics reach the user.
func (it *Interpreter) runCombined(ctx context.Context, args ...string) ([]byte, error) {
	cmd := it.execCommand(ctx, it.binaryPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if detail := strings.TrimSpace(string(out)); detail != "" {
			return out, fmt.Errorf("command %s %v failed: %w: %s", it.binaryPath, args, err, detail)
		}
		return out, fmt.Errorf("command %s %v failed: %w", it.binaryPath, args, err)
	}
	return out, nil
}

// notFoundError builds the actionable error for a failed discovery,
// naming every candidate that was tried.
func (it *Interpreter) notFoundError() error {
	candidates := it.candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	ctx := issue.NewErrorContext().
		WithOperation("locate python interpreter").
		WithResource(strings.Join(candidates, ", "))

	ctx.WithSuggestion("Install Python 3.10 or newer and ensure it is on PATH")
	ctx.WithSuggestion("Set python.binary in the configuration to an explicit interpreter path")

	return ctx.Wrap(ErrPythonNotFound).BuildError()
}
