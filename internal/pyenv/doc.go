// SPDX-License-Identifier: MPL-2.0

// Package pyenv discovers host Python interpreters and manages the
// project virtual environment as an explicit resource.
//
// The three types mirror the provisioning lifecycle: Interpreter wraps a
// host Python binary found on PATH (or configured explicitly), Env is a
// handle on the virtual environment directory, and PipClient runs
// package-installer operations through the environment's own interpreter:
//
//	interp := pyenv.Discover(cfg.Python.Binary)
//	env := pyenv.NewEnv(cfg.Env.Dir)
//	if err := interp.CreateEnv(ctx, env); err != nil { ... }
//	pip := pyenv.NewPipClient(env)
//	err := pip.Upgrade(ctx)
//
// Activation is expressed as environment overrides (Env.Environ) rather
// than by sourcing bin/activate, so child processes see VIRTUAL_ENV and
// the environment's bin directory on PATH without involving a shell.
package pyenv
