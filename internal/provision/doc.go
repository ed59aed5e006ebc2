// SPDX-License-Identifier: MPL-2.0

// Package provision prepares the Python environment the inventory server
// runs in.
//
// The provisioner executes a fixed sequence of named steps over a project
// directory: check the host interpreter against the version floor, create
// the virtual environment, upgrade pip inside it, and install dependencies
// from the detected manifest. The sequence halts at the first failure and
// the returned error names the step that broke; nothing is rolled back.
//
// The main entry point is the Provisioner:
//
//	prov := provision.New(interp, cfg)
//	result, err := prov.Provision(ctx)
//	// result.Env is the handle to the provisioned environment
//
// Optional pre/post hook snippets from the configuration wrap the sequence.
// They run through the embedded POSIX interpreter with the environment's
// activation variables exported, so no host shell is involved.
package provision
