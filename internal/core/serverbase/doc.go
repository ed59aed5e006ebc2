// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the shared lifecycle state machine for
// stockroom's long-running servers: the MCP HTTP server and the operator
// console. Concrete servers embed Base and drive the transitions from
// their Start/Stop methods.
package serverbase
