// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for stockroom.
//
// This package implements the Cobra command hierarchy for the stockroom
// CLI: the root command plus subcommands for provisioning the Python
// environment, launching the inventory server, serving the native MCP
// port, diagnostics, the SSH status console, and configuration
// management.
package cmd
