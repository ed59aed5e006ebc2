// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities:
// runtime.GOOS name constants and application-sandbox detection. Sandbox
// detection matters here because a Flatpak or Snap confined process sees a
// private filesystem, so a host Python interpreter resolved from PATH may
// not be the one the user expects.
package platform
