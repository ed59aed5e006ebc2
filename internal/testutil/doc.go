// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv,
// MustUnsetenv), filesystem operations (MustChdir, MustMkdirAll,
// MustWriteFile), resource cleanup (MustClose, MustStop, DeferClose,
// DeferStop), and a controllable Clock for code with time-dependent behavior
// such as watch debouncing and session token expiry.
package testutil
