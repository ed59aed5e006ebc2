// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// This package defines error types that include remediation steps, plus a catalog
// of Markdown-formatted troubleshooting guides for the failures users hit most
// often: missing or outdated interpreters, broken environments, unreadable
// manifests, and servers that refuse to start.
package issue
