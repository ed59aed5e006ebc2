// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"strings"
)

// parseRequirements parses pip requirements file content.
// Supported format:
//   - Lines starting with # are comments; inline comments start at a #
//     preceded by whitespace (a # inside a URL fragment is kept)
//   - Empty lines are ignored
//   - A trailing backslash continues the entry on the next line
//   - -e/--editable marks an editable install
//   - -r/--requirement lists a nested file (recorded, not followed)
//   - Other dash-prefixed lines are installer options, not dependencies
func parseRequirements(content []byte) []Requirement {
	var reqs []Requirement

	lines := strings.Split(string(content), "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")

		// Join continuation lines before any other processing.
		for strings.HasSuffix(strings.TrimRight(line, " \t"), "\\") && i+1 < len(lines) {
			line = strings.TrimSuffix(strings.TrimRight(line, " \t"), "\\")
			i++
			line += strings.TrimSpace(strings.TrimSuffix(lines[i], "\r"))
		}

		line = strings.TrimSpace(stripComment(line))
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-r ") || strings.HasPrefix(line, "--requirement "):
			_, arg, _ := strings.Cut(line, " ")
			reqs = append(reqs, Requirement{Raw: line, Include: strings.TrimSpace(arg)})
		case strings.HasPrefix(line, "-e ") || strings.HasPrefix(line, "--editable "):
			_, arg, _ := strings.Cut(line, " ")
			arg = strings.TrimSpace(arg)
			reqs = append(reqs, Requirement{Raw: line, Name: editableName(arg), Editable: true})
		case strings.HasPrefix(line, "-"):
			// Installer option (--index-url, --no-binary, ...), not a dependency.
			continue
		default:
			reqs = append(reqs, Requirement{Raw: line, Name: extractDistName(line)})
		}
	}

	return reqs
}

// stripComment removes the comment part of a line. A # starts a comment at
// the beginning of the line or when preceded by whitespace.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			return line[:i]
		}
	}
	return line
}

// extractDistName pulls the distribution name off the front of a dependency
// specifier ("Flask>=2.0", "requests[socks] ; python_version < '3.12'").
// Returns "" when the specifier does not start with one (URLs, local paths).
func extractDistName(spec string) string {
	spec = strings.TrimSpace(spec)
	end := len(spec)
	for i := 0; i < len(spec); i++ {
		if isNameByte(spec[i]) {
			continue
		}
		end = i
		break
	}

	name := spec[:end]
	if name == "" || !isAlnumByte(name[0]) {
		return ""
	}
	// A scheme separator right after the candidate means this is a URL
	// ("git+https://...", "https://...") rather than a name.
	if end < len(spec) && (spec[end] == '+' || spec[end] == ':') {
		return ""
	}

	return normalizeDistName(name)
}

// editableName extracts the distribution name from an editable install
// argument. Local paths have no name; VCS URLs may carry one in the #egg=
// fragment.
func editableName(arg string) string {
	if idx := strings.Index(arg, "#egg="); idx != -1 {
		egg := arg[idx+len("#egg="):]
		if amp := strings.IndexByte(egg, '&'); amp != -1 {
			egg = egg[:amp]
		}
		return normalizeDistName(egg)
	}
	return extractDistName(arg)
}

// normalizeDistName applies PEP 503 normalization: lowercase, with runs of
// ".", "-" and "_" collapsed to a single "-".
func normalizeDistName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if r == '.' || r == '-' || r == '_' {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		b.WriteRune(r)
	}

	return b.String()
}

// isNameByte reports whether c can appear in a distribution name.
func isNameByte(c byte) bool {
	return isAlnumByte(c) || c == '-' || c == '_' || c == '.'
}

func isAlnumByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
