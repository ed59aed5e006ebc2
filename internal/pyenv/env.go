// SPDX-License-Identifier: MPL-2.0

package pyenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// DefaultEnvDir is the virtual environment directory created under
	// the project root when none is configured.
	DefaultEnvDir = "venv"

	// envCfgFileName marks the root of a venv-created environment.
	envCfgFileName = "pyvenv.cfg"
)

var (
	// ErrEnvMissing is the sentinel error wrapped by EnvMissingError.
	ErrEnvMissing = errors.New("environment does not exist")

	// ErrEnvCorrupt is the sentinel error wrapped by EnvCorruptError.
	ErrEnvCorrupt = errors.New("environment is not a valid virtual environment")
)

type (
	// Env is a handle on the project's Python virtual environment. The
	// handle is cheap: nothing is touched on disk until Exists or
	// Validate, and the handle never deletes anything.
	Env struct {
		root string
	}

	// EnvMissingError reports that the environment directory is absent.
	// Provisioning creates it; launching treats it as a precondition
	// failure.
	EnvMissingError struct {
		Root string
	}

	// EnvCorruptError reports that the environment directory exists but
	// is structurally broken: not a directory, no pyvenv.cfg, or no
	// interpreter in the bin directory.
	EnvCorruptError struct {
		Root   string
		Reason string
	}
)

// Error implements the error interface for EnvMissingError.
func (e *EnvMissingError) Error() string {
	return fmt.Sprintf("environment %s does not exist", e.Root)
}

// Unwrap returns ErrEnvMissing for errors.Is() compatibility.
func (e *EnvMissingError) Unwrap() error { return ErrEnvMissing }

// Error implements the error interface for EnvCorruptError.
func (e *EnvCorruptError) Error() string {
	return fmt.Sprintf("environment %s is not a valid virtual environment: %s", e.Root, e.Reason)
}

// Unwrap returns ErrEnvCorrupt for errors.Is() compatibility.
func (e *EnvCorruptError) Unwrap() error { return ErrEnvCorrupt }

// NewEnv returns a handle on the environment rooted at dir. An empty dir
// selects DefaultEnvDir, resolved relative to the working directory.
func NewEnv(dir string) *Env {
	if dir == "" {
		dir = DefaultEnvDir
	}
	return &Env{root: dir}
}

// Root returns the environment root directory.
func (e *Env) Root() string {
	return e.root
}

// Exists reports whether the environment root directory is present.
func (e *Env) Exists() bool {
	info, err := os.Stat(e.root)
	return err == nil && info.IsDir()
}

// BinDir returns the directory holding the environment's executables.
func (e *Env) BinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.root, "Scripts")
	}
	return filepath.Join(e.root, "bin")
}

// Python returns the path of the environment's interpreter.
func (e *Env) Python() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.BinDir(), "python.exe")
	}
	return filepath.Join(e.BinDir(), "python")
}

// Validate checks that the environment exists and is structurally a
// virtual environment: pyvenv.cfg at the root and an interpreter in the
// bin directory. A missing root yields EnvMissingError; a present but
// broken root yields EnvCorruptError, so callers can tell "provision it"
// apart from "it needs re-provisioning".
func (e *Env) Validate() error {
	info, err := os.Stat(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			return &EnvMissingError{Root: e.root}
		}
		return fmt.Errorf("stat environment %s: %w", e.root, err)
	}
	if !info.IsDir() {
		return &EnvCorruptError{Root: e.root, Reason: "not a directory"}
	}
	if _, err := os.Stat(filepath.Join(e.root, envCfgFileName)); err != nil {
		return &EnvCorruptError{Root: e.root, Reason: envCfgFileName + " missing"}
	}
	if _, err := os.Stat(e.Python()); err != nil {
		return &EnvCorruptError{Root: e.root, Reason: "interpreter missing from " + e.BinDir()}
	}
	return nil
}

// Environ returns a copy of base with the environment activated: sets
// VIRTUAL_ENV to the absolute root, prepends the bin directory to PATH,
// and removes PYTHONHOME. This mirrors what bin/activate exports, minus
// the shell. base is not modified.
func (e *Env) Environ(base []string) []string {
	root := e.root
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	binDir := filepath.Join(root, filepath.Base(e.BinDir()))

	out := make([]string, 0, len(base)+2)
	pathSeen := false
	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			out = append(out, kv)
			continue
		}
		switch {
		case envKeyEqual(key, "VIRTUAL_ENV"), envKeyEqual(key, "PYTHONHOME"):
			// Dropped. VIRTUAL_ENV is re-added below; a stale
			// PYTHONHOME would point the env interpreter at the
			// wrong standard library.
		case envKeyEqual(key, "PATH"):
			pathSeen = true
			out = append(out, key+"="+binDir+string(os.PathListSeparator)+value)
		default:
			out = append(out, kv)
		}
	}
	if !pathSeen {
		out = append(out, "PATH="+binDir)
	}
	out = append(out, "VIRTUAL_ENV="+root)
	return out
}

// envKeyEqual compares environment variable names, case-insensitively on
// Windows where the environment block is case-preserving but
// case-insensitive ("Path" vs "PATH").
func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
