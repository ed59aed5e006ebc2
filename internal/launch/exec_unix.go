// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package launch

import "syscall"

// execSupported reports whether process-image replacement is available.
const execSupported = true

// execReplace hands the process over to argv0 via the exec syscall. On
// success it never returns; the current PID now runs the server.
func execReplace(argv0 string, argv []string, envv []string) error {
	return syscall.Exec(argv0, argv, envv)
}
