// SPDX-License-Identifier: MPL-2.0

package doctor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Probe result statuses.
const (
	// StatusOK means the probe passed.
	StatusOK Status = iota
	// StatusWarn means the probe found something degraded but not blocking.
	StatusWarn
	// StatusFail means the probe found a condition that blocks the server.
	StatusFail
)

type (
	// Status classifies a probe result.
	Status int

	// Check is one named probe result.
	Check struct {
		// Name identifies the probe.
		Name string
		// Status classifies the outcome.
		Status Status
		// Detail explains the outcome in one line.
		Detail string
	}

	// Report holds the ordered probe results for one project.
	Report struct {
		// Dir is the diagnosed project directory.
		Dir string
		// Checks lists the probe results in probe order.
		Checks []Check
		// Meta carries resolved paths, rendered sorted by key.
		Meta map[string]string
	}
)

// render is swapped in tests to avoid terminal detection.
var render = glamour.Render

// String returns "ok", "warn" or "fail".
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Healthy reports whether no probe failed. Warnings do not count against
// health: the server can run with, for example, a missing data file.
func (r *Report) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// Counts returns how many checks passed, warned, and failed.
func (r *Report) Counts() (ok, warn, fail int) {
	for _, c := range r.Checks {
		switch c.Status {
		case StatusOK:
			ok++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}
	return ok, warn, fail
}

// Markdown renders the report as markdown: the probe list in probe order,
// then the resolved paths sorted by key so output is deterministic.
func (r *Report) Markdown() string {
	var md strings.Builder

	md.WriteString("# Environment report\n\n")
	fmt.Fprintf(&md, "Project: `%s`\n\n", r.Dir)

	for _, c := range r.Checks {
		fmt.Fprintf(&md, "- **%s** — %s", c.Name, c.Status)
		if c.Detail != "" {
			md.WriteString(": ")
			md.WriteString(c.Detail)
		}
		md.WriteString("\n")
	}

	if len(r.Meta) > 0 {
		md.WriteString("\n## Paths\n\n")
		keys := maps.Keys(r.Meta)
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Fprintf(&md, "- **%s**: `%s`\n", key, r.Meta[key])
		}
	}

	md.WriteString("\n")
	ok, warn, fail := r.Counts()
	switch {
	case fail > 0:
		fmt.Fprintf(&md, "**%d check(s) failed.** Fix the failures above and re-run `stockroom doctor`.\n", fail)
	case warn > 0:
		fmt.Fprintf(&md, "Healthy with %d warning(s): %d ok, %d warned.\n", warn, ok, warn)
	default:
		fmt.Fprintf(&md, "All %d checks passed.\n", ok)
	}

	return md.String()
}

// Render returns the markdown report rendered for the terminal.
func (r *Report) Render(stylePath string) (string, error) {
	return render(r.Markdown(), stylePath)
}

// Summary returns a plain-text rendition for non-terminal consumers such
// as the SSH console.
func (r *Report) Summary() string {
	var out strings.Builder

	for _, c := range r.Checks {
		fmt.Fprintf(&out, "%-20s %-5s %s\n", c.Name, c.Status, c.Detail)
	}

	ok, warn, fail := r.Counts()
	if r.Healthy() {
		fmt.Fprintf(&out, "healthy: %d ok, %d warned\n", ok, warn)
	} else {
		fmt.Fprintf(&out, "unhealthy: %d ok, %d warned, %d failed\n", ok, warn, fail)
	}

	return out.String()
}
