// SPDX-License-Identifier: MPL-2.0

// Package doctor diagnoses a project's readiness to run the inventory
// server. It probes the host interpreter, the virtual environment, the
// dependency manifest, the server entrypoint and the data files, and
// collects the results into a renderable report.
package doctor
