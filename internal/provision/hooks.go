// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/stockroom/stockroom/internal/pyenv"
)

// ErrHookFailed is the sentinel error wrapped by HookError.
var ErrHookFailed = errors.New("provision hook failed")

// HookError is returned when a hook snippet fails to parse or exits
// non-zero. It wraps ErrHookFailed for errors.Is() compatibility.
type HookError struct {
	// Hook is the pipeline step name of the failed hook.
	Hook string
	// ExitCode is the snippet's exit status, 0 when it never ran.
	ExitCode int
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface for HookError.
func (e *HookError) Error() string {
	return fmt.Sprintf("%s: %v", e.Hook, e.Err)
}

// Unwrap returns ErrHookFailed for errors.Is() compatibility.
func (e *HookError) Unwrap() error { return ErrHookFailed }

// runHook executes a hook snippet through the embedded POSIX interpreter in
// the project directory, with the environment's activation variables
// exported. No host shell is involved, so hooks behave the same on every
// platform the interpreter supports.
func (p *Provisioner) runHook(ctx context.Context, name, snippet string, env *pyenv.Env) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(snippet), name)
	if err != nil {
		return &HookError{Hook: name, Err: fmt.Errorf("failed to parse snippet: %w", err)}
	}

	runner, err := interp.New(
		interp.Dir(p.config.Dir),
		interp.Env(expand.ListEnviron(env.Environ(os.Environ())...)),
		interp.StdIO(nil, p.stdout, p.stderr),
	)
	if err != nil {
		return &HookError{Hook: name, Err: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &HookError{
				Hook:     name,
				ExitCode: int(exitStatus),
				Err:      fmt.Errorf("exit status %d", int(exitStatus)),
			}
		}
		return &HookError{Hook: name, Err: err}
	}
	return nil
}
