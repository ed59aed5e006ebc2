// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"github.com/pelletier/go-toml/v2"
)

// pyprojectDoc models the subset of pyproject.toml this package reads.
// Only PEP 621 [project].dependencies entries are installable; optional
// dependency groups need an extras-aware installer and are not consulted.
type pyprojectDoc struct {
	Project struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
}

// parsePyproject parses pyproject.toml content into requirements.
// The filename parameter is used for error messages.
func parsePyproject(content []byte, filename string) ([]Requirement, error) {
	var doc pyprojectDoc
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, &ParseError{Path: filename, Err: err}
	}

	var reqs []Requirement
	for _, dep := range doc.Project.Dependencies {
		reqs = append(reqs, Requirement{Raw: dep, Name: extractDistName(dep)})
	}

	return reqs, nil
}
