// SPDX-License-Identifier: MPL-2.0

// Package launch validates a provisioned environment and starts the
// inventory server in it.
//
// The launcher checks the environment handle and the entrypoint script
// before any process is started, builds the child environment from the
// environment's activation variables, and then hands off. On Unix the
// default handoff replaces the launcher process with the server via the
// exec syscall, so the server keeps the launcher's PID; in wait mode the
// server runs as a child and its exit code is propagated.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/stockroom/stockroom/internal/pyenv"
)

// DefaultEntrypoint is the fixed-name server script the launcher starts.
const DefaultEntrypoint = "inventory_server.py"

// ErrEntrypointNotFound is the sentinel error wrapped by
// EntrypointNotFoundError.
var ErrEntrypointNotFound = errors.New("server entrypoint not found")

type (
	// Mode selects how the launcher hands control to the server.
	Mode int

	// ExecReplaceFunc replaces the current process image. Tests substitute
	// it to observe the handoff without losing the test process.
	ExecReplaceFunc func(argv0 string, argv []string, envv []string) error

	// Option is a functional option for configuring a Launcher.
	Option func(*Launcher)

	// Launcher starts the inventory server inside a provisioned
	// environment. Construct with New.
	Launcher struct {
		env         *pyenv.Env
		entrypoint  string
		args        []string
		extraEnv    map[string]string
		envFiles    []string
		dir         string
		mode        Mode
		usePTY      bool
		stdin       io.Reader
		stdout      io.Writer
		stderr      io.Writer
		logger      *log.Logger
		execCommand pyenv.ExecCommandFunc
		execReplace ExecReplaceFunc
	}

	// EntrypointNotFoundError is returned when the server script does not
	// exist. It wraps ErrEntrypointNotFound for errors.Is() compatibility.
	EntrypointNotFoundError struct {
		// Path is the entrypoint that was checked.
		Path string
	}
)

// Launch modes.
const (
	// ModeExec replaces the launcher process with the server. Only
	// available on Unix; elsewhere it degrades to ModeWait.
	ModeExec Mode = iota
	// ModeWait spawns the server as a child, waits for it, and propagates
	// its exit code.
	ModeWait
)

// String returns the mode name for logging.
func (m Mode) String() string {
	if m == ModeExec {
		return "exec"
	}
	return "wait"
}

// Error implements the error interface for EntrypointNotFoundError.
func (e *EntrypointNotFoundError) Error() string {
	return fmt.Sprintf("server entrypoint %s not found", e.Path)
}

// Unwrap returns ErrEntrypointNotFound for errors.Is() compatibility.
func (e *EntrypointNotFoundError) Unwrap() error { return ErrEntrypointNotFound }

// WithEntrypoint overrides the server script ("" keeps the default).
func WithEntrypoint(path string) Option {
	return func(l *Launcher) {
		if path != "" {
			l.entrypoint = path
		}
	}
}

// WithArgs sets extra arguments passed to the server after the entrypoint.
func WithArgs(args ...string) Option {
	return func(l *Launcher) {
		l.args = args
	}
}

// WithExtraEnv sets additional environment variables for the server. They
// override inherited and activation variables of the same name.
func WithExtraEnv(env map[string]string) Option {
	return func(l *Launcher) {
		l.extraEnv = env
	}
}

// WithEnvFiles sets dotenv files loaded into the server environment, in
// order. A trailing '?' marks a file optional.
func WithEnvFiles(files ...string) Option {
	return func(l *Launcher) {
		l.envFiles = files
	}
}

// WithDir sets the working directory the server runs in and the base for
// relative entrypoint and dotenv paths.
func WithDir(dir string) Option {
	return func(l *Launcher) {
		l.dir = dir
	}
}

// WithMode sets the handoff mode.
func WithMode(mode Mode) Option {
	return func(l *Launcher) {
		l.mode = mode
	}
}

// WithPTY runs the server on a pseudo-terminal in wait mode, keeping
// terminal semantics for interactive output.
func WithPTY(enabled bool) Option {
	return func(l *Launcher) {
		l.usePTY = enabled
	}
}

// WithStdio sets the streams wired to the server in wait mode.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithLogger sets the launcher's logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithExecCommand overrides subprocess creation for wait mode.
func WithExecCommand(fn pyenv.ExecCommandFunc) Option {
	return func(l *Launcher) {
		l.execCommand = fn
	}
}

// WithExecReplace overrides the process replacement function.
func WithExecReplace(fn ExecReplaceFunc) Option {
	return func(l *Launcher) {
		l.execReplace = fn
	}
}

// New creates a Launcher for a provisioned environment.
func New(env *pyenv.Env, opts ...Option) *Launcher {
	l := &Launcher{
		env:         env,
		entrypoint:  DefaultEntrypoint,
		mode:        defaultMode(),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		execCommand: exec.CommandContext,
		execReplace: execReplace,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "launch",
		})
	}
	return l
}

func defaultMode() Mode {
	if execSupported {
		return ModeExec
	}
	return ModeWait
}

// Launch validates the environment and the entrypoint, builds the server
// environment, and hands off. Both checks run before any process starts,
// so a broken environment never reaches the server.
//
// In ModeExec the call does not return on success: the launcher process
// becomes the server. In ModeWait it returns the server's exit code; err
// is non-nil only for launcher-side failures, never for a server that ran
// and exited non-zero.
func (l *Launcher) Launch(ctx context.Context) (int, error) {
	if err := l.env.Validate(); err != nil {
		return 1, err
	}

	entrypoint, err := l.entrypointPath()
	if err != nil {
		return 1, err
	}
	if info, err := os.Stat(entrypoint); err != nil || info.IsDir() {
		if err != nil && !os.IsNotExist(err) {
			return 1, fmt.Errorf("failed to stat entrypoint '%s': %w", entrypoint, err)
		}
		return 1, &EntrypointNotFoundError{Path: entrypoint}
	}

	python, err := filepath.Abs(l.env.Python())
	if err != nil {
		return 1, fmt.Errorf("failed to resolve interpreter path: %w", err)
	}

	environ, err := l.buildEnviron()
	if err != nil {
		return 1, err
	}

	argv := append([]string{python, entrypoint}, l.args...)

	if l.mode == ModeExec && execSupported {
		return l.handoff(argv, environ)
	}
	return l.wait(ctx, argv, environ)
}

// handoff replaces the launcher process with the server. The server keeps
// the launcher's PID. Reaching the returns below means the replacement
// function was substituted or failed.
func (l *Launcher) handoff(argv []string, environ []string) (int, error) {
	if l.dir != "" {
		if err := os.Chdir(l.dir); err != nil {
			return 1, fmt.Errorf("failed to enter directory '%s': %w", l.dir, err)
		}
	}

	l.logger.Debug("replacing process with server", "python", argv[0], "argv", argv[1:])
	if err := l.execReplace(argv[0], argv, environ); err != nil {
		return 1, fmt.Errorf("failed to exec %s: %w", argv[0], err)
	}
	return 0, nil
}

// wait spawns the server as a child, wires the streams, and waits. The
// child's exit code is returned as is; cancellation of ctx terminates the
// child.
func (l *Launcher) wait(ctx context.Context, argv []string, environ []string) (int, error) {
	cmd := l.execCommand(ctx, argv[0], argv[1:]...)
	cmd.Dir = l.dir
	cmd.Env = environ

	l.logger.Debug("starting server", "python", argv[0], "argv", argv[1:], "pty", l.usePTY)

	if l.usePTY {
		return l.waitPTY(cmd)
	}

	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("failed to run server: %w", err)
	}
	return 0, nil
}

// entrypointPath resolves the server script to an absolute path, relative
// entries against the working directory.
func (l *Launcher) entrypointPath() (string, error) {
	path := l.entrypoint
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve entrypoint '%s': %w", l.entrypoint, err)
	}
	return abs, nil
}

// buildEnviron assembles the server environment: the inherited environment
// with the activation overrides applied, then dotenv files in order, then
// the extra variables. Later sources win.
func (l *Launcher) buildEnviron() ([]string, error) {
	environ := l.env.Environ(os.Environ())

	overrides := make(map[string]string)
	for _, file := range l.envFiles {
		if err := LoadEnvFile(overrides, file, l.dir); err != nil {
			return nil, err
		}
	}
	for key, value := range l.extraEnv {
		overrides[key] = value
	}

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		environ = setEnv(environ, key, overrides[key])
	}
	return environ, nil
}

// setEnv replaces key's entry in environ or appends it.
func setEnv(environ []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			environ[i] = prefix + value
			return environ
		}
	}
	return append(environ, prefix+value)
}
