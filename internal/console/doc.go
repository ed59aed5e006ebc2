// SPDX-License-Identifier: MPL-2.0

// Package console provides a read-only SSH status console. Sessions
// authenticate with single-use tokens minted by the CLI, receive the
// rendered environment and inventory status, and are closed. No shell
// and no command execution are exposed.
package console
