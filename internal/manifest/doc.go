// SPDX-License-Identifier: MPL-2.0

// Package manifest locates and parses Python dependency manifests.
//
// Two formats are supported: pip requirements files (requirements.txt, the
// fixed-name default) and PEP 621 pyproject.toml files, reading
// [project].dependencies. Detection is a fixed-name lookup in the project
// directory, requirements.txt first:
//
//	m, err := manifest.LoadDir(projectDir)
//	// m.Requirements holds the parsed specifiers
//
// Requirements parsing follows pip's file format: comments, blank lines,
// line continuations, editable (-e) installs, and nested -r includes.
// Nested files are listed as entries, not followed.
package manifest
