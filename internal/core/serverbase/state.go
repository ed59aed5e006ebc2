// SPDX-License-Identifier: MPL-2.0

package serverbase

const (
	// StateCreated indicates the server instance exists but Start was not called.
	StateCreated State = iota
	// StateStarting indicates Start was called and initialization is in progress.
	StateStarting
	// StateRunning indicates the server is serving requests.
	StateRunning
	// StateStopping indicates Stop was called and graceful shutdown is in progress.
	StateStopping
	// StateStopped is terminal: the server shut down cleanly.
	StateStopped
	// StateFailed is terminal: the server failed to start or hit a fatal error.
	StateFailed
)

// State represents the lifecycle state of a server.
type State int32

// String returns a human-readable representation of the server state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state is Stopped or Failed. A server in a
// terminal state cannot be restarted; create a new instance instead.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
