// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"syscall"

	"github.com/stockroom/stockroom/internal/issue"
	"github.com/stockroom/stockroom/internal/launch"
	"github.com/stockroom/stockroom/internal/manifest"
	"github.com/stockroom/stockroom/internal/pipeline"
	"github.com/stockroom/stockroom/internal/provision"
	"github.com/stockroom/stockroom/internal/pyenv"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before formatting the underlying error.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
// All construction sites must use this instead of struct literals.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError renders a ServiceError in the CLI layer.
// It prints any styled message first, then the optional issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// classifyServiceError maps provisioning and launch failures to issue catalog
// IDs and returns a styled message for CLI rendering. It preserves actionable
// error details. Unclassified errors return issue ID 0, which renders without
// a help section.
func classifyServiceError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, pyenv.ErrPythonNotFound):
		issueID = issue.PythonNotFoundId
	case errors.Is(err, provision.ErrPythonTooOld):
		issueID = issue.PythonTooOldId
	case errors.Is(err, pyenv.ErrEnvMissing):
		issueID = issue.EnvMissingId
	case errors.Is(err, pyenv.ErrEnvCorrupt):
		issueID = issue.EnvInvalidId
	case errors.Is(err, manifest.ErrNotFound):
		issueID = issue.ManifestNotFoundId
	case errors.Is(err, manifest.ErrParse):
		issueID = issue.ManifestParseErrorId
	case errors.Is(err, launch.ErrEntrypointNotFound):
		issueID = issue.EntrypointNotFoundId
	case errors.Is(err, provision.ErrHookFailed):
		issueID = issue.HookFailedId
	default:
		issueID = classifyStepError(err)
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// classifyStepError maps otherwise-unclassified pipeline failures by the
// step that failed. Pip subprocess failures carry no sentinel of their own,
// so the step name is the only signal.
func classifyStepError(err error) issue.Id {
	var stepErr *pipeline.StepError
	if !errors.As(err, &stepErr) {
		return 0
	}
	switch stepErr.Name {
	case provision.StepUpgradePip, provision.StepInstallDeps:
		return issue.PipInstallFailedId
	}
	return 0
}

// classifyListenError maps server startup failures to issue catalog IDs.
// fallback is returned for anything that is not a port collision.
func classifyListenError(err error, fallback issue.Id) issue.Id {
	if errors.Is(err, syscall.EADDRINUSE) {
		return issue.PortInUseId
	}
	return fallback
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
