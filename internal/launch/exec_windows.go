// SPDX-License-Identifier: MPL-2.0

//go:build windows

package launch

import "errors"

// execSupported reports whether process-image replacement is available.
// Windows has no exec; the launcher degrades to spawn-and-wait.
const execSupported = false

func execReplace(argv0 string, argv []string, envv []string) error {
	return errors.New("process replacement is not supported on windows")
}
