// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidWatchConfig is the sentinel error wrapped by
// InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns are doublestar-compatible glob patterns (e.g. "**/*.py")
		// that select which files trigger callbacks. An empty slice watches
		// all non-ignored files; DefaultPatterns returns the set tuned for
		// an inventory server project.
		Patterns []string

		// Ignore are additional doublestar-compatible glob patterns for
		// paths that should never trigger callbacks. They are merged with
		// the built-in default ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// callback fires. Zero or negative values fall back to the default.
		Debounce time.Duration

		// ClearScreen controls whether the terminal is cleared before each
		// callback invocation by writing ANSI escape sequences to Stdout.
		// No terminal detection is performed; callers should ensure Stdout
		// is a real terminal when enabling this option.
		ClearScreen bool

		// BaseDir is the root directory to watch. All patterns are resolved
		// relative to this path. An empty value defaults to the current
		// working directory.
		BaseDir string

		// OnChange is called after the debounce window closes with the
		// deduplicated list of changed file paths (relative to BaseDir). A
		// nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout and Stderr are the output writers for informational and
		// error messages respectively. nil values default to os.Stdout /
		// os.Stderr.
		Stdout io.Writer
		Stderr io.Writer
	}

	// InvalidWatchConfigError aggregates every invalid Config field so a
	// caller sees all problems at once. It wraps ErrInvalidWatchConfig for
	// errors.Is() compatibility.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface for InvalidWatchConfigError.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fieldErr := range e.FieldErrors {
		msgs = append(msgs, fieldErr.Error())
	}
	return fmt.Sprintf("invalid watch config (%d field errors): %s",
		len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// Validate checks every field and aggregates the problems. The zero value
// is valid: it watches all non-ignored files under the working directory.
func (c Config) Validate() error {
	var fieldErrs []error
	fieldErrs = append(fieldErrs, validatePatterns(c.Patterns, "watch")...)
	fieldErrs = append(fieldErrs, validatePatterns(c.Ignore, "ignore")...)
	if c.BaseDir != "" && strings.TrimSpace(c.BaseDir) == "" {
		fieldErrs = append(fieldErrs, errors.New("base directory must not be whitespace-only"))
	}
	if len(fieldErrs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: fieldErrs}
	}
	return nil
}

// validatePatterns checks that every pattern is a non-empty, valid
// doublestar glob. The label tells watch and ignore patterns apart in
// error messages.
func validatePatterns(patterns []string, label string) []error {
	var errs []error
	for _, pat := range patterns {
		if strings.TrimSpace(pat) == "" {
			errs = append(errs, fmt.Errorf("empty %s pattern", label))
			continue
		}
		if _, err := doublestar.Match(pat, ""); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s pattern %q: %w", label, pat, err))
		}
	}
	return errs
}
