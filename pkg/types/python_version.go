// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPythonVersion is the sentinel error wrapped by InvalidPythonVersionError.
var ErrInvalidPythonVersion = errors.New("invalid python version")

type (
	// PythonVersion represents an interpreter version as reported by
	// "python --version" (e.g. "Python 3.12.4"). Micro is 0 when the
	// reported version has only two components.
	PythonVersion struct {
		Major int
		Minor int
		Micro int
	}

	// InvalidPythonVersionError is returned when interpreter version output
	// cannot be parsed. Raw preserves the original output so failure messages
	// can surface exactly what the interpreter reported.
	InvalidPythonVersionError struct {
		Raw string
	}
)

// Error implements the error interface for InvalidPythonVersionError.
func (e *InvalidPythonVersionError) Error() string {
	return fmt.Sprintf("invalid python version %q: expected MAJOR.MINOR[.MICRO]", e.Raw)
}

// Unwrap returns ErrInvalidPythonVersion for errors.Is() compatibility.
func (e *InvalidPythonVersionError) Unwrap() error { return ErrInvalidPythonVersion }

// ParsePythonVersion parses interpreter version output into a PythonVersion.
// It accepts the full "--version" line ("Python 3.12.4") or a bare version
// string ("3.10"). Pre-release suffixes on the micro component ("3.14.0b2")
// are tolerated and truncated at the first non-digit.
func ParsePythonVersion(raw string) (PythonVersion, error) {
	s := strings.TrimSpace(raw)
	if fields := strings.Fields(s); len(fields) > 1 {
		// "Python 3.12.4" from a version probe: the version is the last field.
		s = fields[len(fields)-1]
	}
	if s == "" {
		return PythonVersion{}, &InvalidPythonVersionError{Raw: raw}
	}

	parts := strings.SplitN(s, ".", 3)
	if len(parts) < 2 {
		return PythonVersion{}, &InvalidPythonVersionError{Raw: raw}
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return PythonVersion{}, &InvalidPythonVersionError{Raw: raw}
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return PythonVersion{}, &InvalidPythonVersionError{Raw: raw}
	}

	micro := 0
	if len(parts) == 3 {
		micro, err = strconv.Atoi(leadingDigits(parts[2]))
		if err != nil {
			return PythonVersion{}, &InvalidPythonVersionError{Raw: raw}
		}
	}

	v := PythonVersion{Major: major, Minor: minor, Micro: micro}
	if err := v.Validate(); err != nil {
		return PythonVersion{}, &InvalidPythonVersionError{Raw: raw}
	}
	return v, nil
}

// leadingDigits returns the leading digit run of s ("0b2" -> "0").
// Returns s unchanged when it starts with a non-digit so strconv
// reports the parse failure.
func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			if i == 0 {
				return s
			}
			return s[:i]
		}
	}
	return s
}

// Validate returns an error if any version component is negative.
func (v PythonVersion) Validate() error {
	if v.Major < 0 || v.Minor < 0 || v.Micro < 0 {
		return &InvalidPythonVersionError{Raw: v.String()}
	}
	return nil
}

// AtLeast reports whether v is greater than or equal to other.
func (v PythonVersion) AtLeast(other PythonVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Micro >= other.Micro
}

// String returns the dotted form "MAJOR.MINOR.MICRO", or "MAJOR.MINOR" when
// Micro is zero.
func (v PythonVersion) String() string {
	if v.Micro == 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}
