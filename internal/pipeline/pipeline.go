// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs an ordered sequence of named steps and stops at the
// first failure. The provisioner uses it so that every failure identifies the
// exact step that broke (interpreter check, environment creation, pip
// upgrade, dependency install) instead of surfacing an anonymous error.
package pipeline

import (
	"context"
	"fmt"
)

type (
	// Step is a single named unit of work in a pipeline.
	Step interface {
		// Name identifies the step in errors and progress output.
		Name() string
		// Run performs the step's work.
		Run(ctx context.Context) error
	}

	// StepError identifies which step failed and wraps its cause.
	StepError struct {
		// Index is the zero-based position of the failed step.
		Index int
		// Name is the failed step's name.
		Name string
		// Err is the underlying failure.
		Err error
	}

	// Observer receives step lifecycle notifications. Nil funcs are skipped,
	// so callers only wire the notifications they care about.
	Observer struct {
		// OnStepStart is called before a step runs.
		OnStepStart func(index int, name string)
		// OnStepDone is called after a step returns, with its error (nil on success).
		OnStepDone func(index int, name string, err error)
	}

	// Runner executes steps strictly in order. No step runs after a failure,
	// and each step runs at most once per Run call.
	Runner struct {
		steps    []Step
		observer Observer
	}

	// funcStep adapts a plain function into a Step.
	funcStep struct {
		name string
		fn   func(ctx context.Context) error
	}
)

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying failure for errors.Is/errors.As traversal.
func (e *StepError) Unwrap() error { return e.Err }

// Func adapts fn into a Step with the given name.
func Func(name string, fn func(ctx context.Context) error) Step {
	return funcStep{name: name, fn: fn}
}

func (s funcStep) Name() string { return s.name }

func (s funcStep) Run(ctx context.Context) error { return s.fn(ctx) }

// NewRunner creates a Runner over the given steps. Steps execute in the
// order given.
func NewRunner(steps ...Step) *Runner {
	return &Runner{steps: steps}
}

// WithObserver sets the lifecycle observer and returns the runner for chaining.
func (r *Runner) WithObserver(obs Observer) *Runner {
	r.observer = obs
	return r
}

// Len reports the number of steps.
func (r *Runner) Len() int { return len(r.steps) }

// Names returns the step names in execution order.
func (r *Runner) Names() []string {
	names := make([]string, len(r.steps))
	for i, step := range r.steps {
		names[i] = step.Name()
	}
	return names
}

// Run executes the steps in order, halting at the first failure and returning
// a *StepError that names the failed step. A pipeline with zero steps
// succeeds without doing anything.
//
// Cancellation is checked between steps: an aborted run returns a *StepError
// attributing the context error to the step that would have run next. Steps
// that block internally are expected to honor ctx themselves.
func (r *Runner) Run(ctx context.Context) error {
	for i, step := range r.steps {
		select {
		case <-ctx.Done():
			return &StepError{Index: i, Name: step.Name(), Err: ctx.Err()}
		default:
		}

		if r.observer.OnStepStart != nil {
			r.observer.OnStepStart(i, step.Name())
		}
		err := step.Run(ctx)
		if r.observer.OnStepDone != nil {
			r.observer.OnStepDone(i, step.Name(), err)
		}
		if err != nil {
			return &StepError{Index: i, Name: step.Name(), Err: err}
		}
	}
	return nil
}
