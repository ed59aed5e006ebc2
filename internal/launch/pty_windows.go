// SPDX-License-Identifier: MPL-2.0

//go:build windows

package launch

import (
	"errors"
	"os/exec"
)

func (l *Launcher) waitPTY(_ *exec.Cmd) (int, error) {
	return 1, errors.New("pty mode is not supported on windows")
}
