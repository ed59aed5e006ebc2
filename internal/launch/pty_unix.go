// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package launch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// waitPTY runs the server on a pseudo-terminal so it keeps terminal
// semantics (line buffering, color) even though the launcher sits between
// it and the real terminal. Used in wait mode only.
func (l *Launcher) waitPTY(cmd *exec.Cmd) (int, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return 1, fmt.Errorf("failed to allocate pty: %w", err)
	}
	defer ptmx.Close() //nolint:errcheck // Best-effort close on the master side

	if stdin, ok := l.stdin.(*os.File); ok {
		go io.Copy(ptmx, stdin) //nolint:errcheck // Copy ends when the pty closes
	}

	// The copy returns with EIO once the child exits and the slave side
	// closes; that is the normal shutdown path, not a failure.
	_, _ = io.Copy(l.stdout, ptmx)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("server terminated abnormally: %w", err)
	}
	return 0, nil
}
