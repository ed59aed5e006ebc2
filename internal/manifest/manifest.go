// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RequirementsFileName is the fixed-name manifest looked up first.
	RequirementsFileName = "requirements.txt"
	// PyprojectFileName is the PEP 621 manifest looked up second.
	PyprojectFileName = "pyproject.toml"
)

// ErrNotFound is the sentinel error wrapped by NotFoundError.
var ErrNotFound = errors.New("no dependency manifest found")

// ErrParse is the sentinel error wrapped by ParseError.
var ErrParse = errors.New("dependency manifest parse failed")

type (
	// Kind identifies a manifest format.
	Kind string

	// Manifest is a parsed dependency manifest.
	Manifest struct {
		// Path is the manifest file location.
		Path string
		// Kind identifies the format the file was parsed as.
		Kind Kind
		// Requirements lists the parsed dependency entries in file order.
		Requirements []Requirement
	}

	// Requirement is a single dependency entry. Raw always holds the
	// specifier as written; the remaining fields are extracted views.
	Requirement struct {
		// Raw is the entry as it appears in the manifest, comments stripped.
		Raw string
		// Name is the PEP 503 normalized distribution name, or "" when the
		// entry does not start with one (URLs, local paths, includes).
		Name string
		// Editable marks -e/--editable installs.
		Editable bool
		// Include is the referenced file for -r/--requirement entries.
		Include string
	}

	// NotFoundError is returned when a directory contains no manifest.
	// It wraps ErrNotFound for errors.Is() compatibility.
	NotFoundError struct {
		// Dir is the directory that was searched.
		Dir string
	}

	// ParseError is returned when a manifest exists but cannot be parsed.
	// It wraps ErrParse for errors.Is() compatibility.
	ParseError struct {
		// Path is the manifest file that failed to parse.
		Path string
		// Err is the parser's failure.
		Err error
	}
)

// Manifest format kinds.
const (
	KindRequirements Kind = "requirements"
	KindPyproject    Kind = "pyproject"
)

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no dependency manifest in %s (tried %s, %s)",
		e.Dir, RequirementsFileName, PyprojectFileName)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest '%s': %v", e.Path, e.Err)
}

// Unwrap returns ErrParse for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrParse }

// Detect locates the manifest in dir by fixed-name lookup:
// requirements.txt first, then pyproject.toml. Returns NotFoundError when
// neither exists as a regular file.
func Detect(dir string) (string, Kind, error) {
	candidates := []struct {
		name string
		kind Kind
	}{
		{RequirementsFileName, KindRequirements},
		{PyprojectFileName, KindPyproject},
	}

	for _, c := range candidates {
		path := filepath.Join(dir, c.name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, c.kind, nil
		}
	}

	return "", "", &NotFoundError{Dir: dir}
}

// Load reads and parses the manifest at path. The format is chosen by file
// name: pyproject.toml (or any .toml file) parses as PEP 621, everything
// else as a pip requirements file. An empty manifest is valid and yields
// zero requirements.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest '%s': %w", path, err)
	}

	kind := kindOf(path)
	if kind == KindPyproject {
		reqs, err := parsePyproject(data, path)
		if err != nil {
			return nil, err
		}
		return &Manifest{Path: path, Kind: kind, Requirements: reqs}, nil
	}

	return &Manifest{Path: path, Kind: kind, Requirements: parseRequirements(data)}, nil
}

// LoadDir detects and loads the manifest for a project directory.
func LoadDir(dir string) (*Manifest, error) {
	path, _, err := Detect(dir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Names returns the distribution names of the parsed requirements, skipping
// entries without one (installer options, local paths, includes).
func (m *Manifest) Names() []string {
	var names []string
	for _, r := range m.Requirements {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names
}

// kindOf picks the parse format from the file name.
func kindOf(path string) Kind {
	base := strings.ToLower(filepath.Base(path))
	if base == PyprojectFileName || strings.HasSuffix(base, ".toml") {
		return KindPyproject
	}
	return KindRequirements
}
