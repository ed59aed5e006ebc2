// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stockroom/stockroom/internal/issue"
	"github.com/stockroom/stockroom/internal/launch"
	"github.com/stockroom/stockroom/internal/manifest"
	"github.com/stockroom/stockroom/internal/pipeline"
	"github.com/stockroom/stockroom/internal/provision"
	"github.com/stockroom/stockroom/internal/pyenv"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T", r)
		}
		if msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic message: %s", msg)
		}
	}()

	newServiceError(nil, 0, "")
}

func TestNewServiceError_ValidConstruction(t *testing.T) {
	t.Parallel()

	err := errors.New("test error")
	svcErr := newServiceError(err, issue.PythonNotFoundId, "styled message")

	if !errors.Is(svcErr.Err, err) {
		t.Errorf("Err = %v, want %v", svcErr.Err, err)
	}
	if svcErr.IssueID != issue.PythonNotFoundId {
		t.Errorf("IssueID = %d, want %d", svcErr.IssueID, issue.PythonNotFoundId)
	}
	if svcErr.StyledMessage != "styled message" {
		t.Errorf("StyledMessage = %q, want %q", svcErr.StyledMessage, "styled message")
	}
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, 0, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
}

func TestRenderServiceError_NilServiceError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output for nil ServiceError, got %q", buf.String())
	}
}

func TestRenderServiceError_StyledMessageOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("test"), 0, "styled output\n")
	renderServiceError(&buf, svcErr)

	if buf.String() != "styled output\n" {
		t.Errorf("output = %q, want %q", buf.String(), "styled output\n")
	}
}

func TestRenderServiceError_WithIssueID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("test"), issue.PythonNotFoundId, "")
	renderServiceError(&buf, svcErr)

	// Issue catalog entry should be rendered (contains the issue template content)
	output := buf.String()
	if output == "" {
		t.Error("expected non-empty output when IssueID is set")
	}
}

func TestRenderServiceError_StyledMessageAndIssueID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("test"), issue.PythonNotFoundId, "styled: ")
	renderServiceError(&buf, svcErr)

	output := buf.String()
	// Should contain both the styled message prefix and the issue catalog content
	if len(output) <= len("styled: ") {
		t.Errorf("expected styled message + issue content, got only %q", output)
	}
}

func TestRenderServiceError_ZeroIssueIDSkipsCatalog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	svcErr := newServiceError(errors.New("test"), 0, "only this")
	renderServiceError(&buf, svcErr)

	if buf.String() != "only this" {
		t.Errorf("output = %q, want %q", buf.String(), "only this")
	}
}

func TestClassifyServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			name: "python not found",
			err:  fmt.Errorf("discovery: %w", pyenv.ErrPythonNotFound),
			want: issue.PythonNotFoundId,
		},
		{
			name: "python too old",
			err:  fmt.Errorf("check: %w", provision.ErrPythonTooOld),
			want: issue.PythonTooOldId,
		},
		{
			name: "environment missing",
			err:  fmt.Errorf("validate: %w", pyenv.ErrEnvMissing),
			want: issue.EnvMissingId,
		},
		{
			name: "environment corrupt",
			err:  fmt.Errorf("validate: %w", pyenv.ErrEnvCorrupt),
			want: issue.EnvInvalidId,
		},
		{
			name: "manifest not found",
			err:  fmt.Errorf("resolve: %w", manifest.ErrNotFound),
			want: issue.ManifestNotFoundId,
		},
		{
			name: "manifest parse failure",
			err:  &manifest.ParseError{Path: "pyproject.toml", Err: errors.New("bad TOML")},
			want: issue.ManifestParseErrorId,
		},
		{
			name: "entrypoint not found",
			err:  fmt.Errorf("launch: %w", launch.ErrEntrypointNotFound),
			want: issue.EntrypointNotFoundId,
		},
		{
			name: "hook failed",
			err:  fmt.Errorf("pipeline: %w", provision.ErrHookFailed),
			want: issue.HookFailedId,
		},
		{
			name: "pip upgrade step failure",
			err: fmt.Errorf("provision: %w", &pipeline.StepError{
				Index: 2,
				Name:  provision.StepUpgradePip,
				Err:   errors.New("exit status 1"),
			}),
			want: issue.PipInstallFailedId,
		},
		{
			name: "dependency install step failure",
			err: fmt.Errorf("provision: %w", &pipeline.StepError{
				Index: 3,
				Name:  provision.StepInstallDeps,
				Err:   errors.New("exit status 1"),
			}),
			want: issue.PipInstallFailedId,
		},
		{
			name: "other step failure stays unclassified",
			err: &pipeline.StepError{
				Index: 1,
				Name:  provision.StepCreateEnv,
				Err:   errors.New("mkdir: permission denied"),
			},
			want: 0,
		},
		{
			name: "plain error stays unclassified",
			err:  errors.New("something else entirely"),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, styled := classifyServiceError(tt.err, false)
			if got != tt.want {
				t.Errorf("classifyServiceError() issue = %d, want %d", got, tt.want)
			}
			if styled == "" {
				t.Error("classifyServiceError() styled message should never be empty")
			}
		})
	}
}

func TestClassifyListenError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		fallback issue.Id
		want     issue.Id
	}{
		{
			name:     "address in use",
			err:      fmt.Errorf("listen tcp :8080: %w", syscall.EADDRINUSE),
			fallback: issue.ConsoleStartFailedId,
			want:     issue.PortInUseId,
		},
		{
			name:     "other failure maps to fallback",
			err:      errors.New("listen tcp: lookup nohost: no such host"),
			fallback: issue.ConsoleStartFailedId,
			want:     issue.ConsoleStartFailedId,
		},
		{
			name:     "zero fallback stays zero",
			err:      errors.New("boom"),
			fallback: 0,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := classifyListenError(tt.err, tt.fallback); got != tt.want {
				t.Errorf("classifyListenError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("formatErrorForDisplay() = %q, want %q", got, "plain failure")
	}
}
