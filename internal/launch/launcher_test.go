// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/stockroom/stockroom/internal/pyenv"
	"github.com/stockroom/stockroom/internal/testutil"
)

// newServerEnv lays out a minimal valid environment under base and returns
// its handle.
func newServerEnv(t *testing.T, base string) *pyenv.Env {
	t.Helper()
	env := pyenv.NewEnv(filepath.Join(base, pyenv.DefaultEnvDir))
	testutil.MustWriteFile(t, filepath.Join(env.Root(), "pyvenv.cfg"), []byte("home = /usr/bin\n"), 0o644)
	testutil.MustWriteFile(t, env.Python(), []byte("#!/bin/sh\n"), 0o755)
	return env
}

// newServerDir creates a project directory with a valid environment and the
// default entrypoint script.
func newServerDir(t *testing.T) (string, *pyenv.Env) {
	t.Helper()
	dir := t.TempDir()
	env := newServerEnv(t, dir)
	testutil.MustWriteFile(t, filepath.Join(dir, DefaultEntrypoint), []byte("print('serving')\n"), 0o644)
	return dir, env
}

// execCapture records a process replacement instead of performing it.
type execCapture struct {
	called bool
	argv0  string
	argv   []string
	envv   []string
	err    error
}

func (c *execCapture) fn(argv0 string, argv []string, envv []string) error {
	c.called = true
	c.argv0 = argv0
	c.argv = argv
	c.envv = envv
	return c.err
}

// envValue returns the value of key in environ and how many entries carry
// the key.
func envValue(environ []string, key string) (string, int) {
	value := ""
	count := 0
	prefix := key + "="
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			value = strings.TrimPrefix(kv, prefix)
			count++
		}
	}
	return value, count
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestLauncher_Launch(t *testing.T) {
	t.Parallel()

	t.Run("exec handoff hands the process to the environment python", func(t *testing.T) {
		t.Parallel()
		if !execSupported {
			t.Skip("process replacement is not supported on this platform")
		}

		dir, env := newServerDir(t)
		entrypoint := filepath.Join(dir, DefaultEntrypoint)

		capture := &execCapture{}
		l := New(env,
			WithEntrypoint(entrypoint),
			WithMode(ModeExec),
			WithExecReplace(capture.fn),
			WithLogger(quietLogger()),
		)

		code, err := l.Launch(context.Background())
		if err != nil {
			t.Fatalf("expected launch to succeed, got %v", err)
		}
		if code != 0 {
			t.Errorf("expected exit code 0, got %d", code)
		}
		if !capture.called {
			t.Fatal("expected the process replacement to be invoked")
		}

		python, absErr := filepath.Abs(env.Python())
		if absErr != nil {
			t.Fatalf("failed to resolve interpreter path: %v", absErr)
		}
		if capture.argv0 != python {
			t.Errorf("expected argv0 %q, got %q", python, capture.argv0)
		}
		wantArgv := []string{python, entrypoint}
		if !slices.Equal(capture.argv, wantArgv) {
			t.Errorf("expected argv %v, got %v", wantArgv, capture.argv)
		}

		virtualEnv, count := envValue(capture.envv, "VIRTUAL_ENV")
		if count != 1 {
			t.Fatalf("expected exactly one VIRTUAL_ENV entry, got %d", count)
		}
		if virtualEnv != env.Root() {
			t.Errorf("expected VIRTUAL_ENV %q, got %q", env.Root(), virtualEnv)
		}
		path, _ := envValue(capture.envv, "PATH")
		if !strings.HasPrefix(path, env.BinDir()+string(filepath.ListSeparator)) {
			t.Errorf("expected PATH to start with %q, got %q", env.BinDir(), path)
		}
	})

	t.Run("extra arguments follow the entrypoint", func(t *testing.T) {
		t.Parallel()
		if !execSupported {
			t.Skip("process replacement is not supported on this platform")
		}

		dir, env := newServerDir(t)
		entrypoint := filepath.Join(dir, DefaultEntrypoint)

		capture := &execCapture{}
		l := New(env,
			WithEntrypoint(entrypoint),
			WithArgs("--transport", "sse"),
			WithMode(ModeExec),
			WithExecReplace(capture.fn),
			WithLogger(quietLogger()),
		)

		if _, err := l.Launch(context.Background()); err != nil {
			t.Fatalf("expected launch to succeed, got %v", err)
		}
		if len(capture.argv) != 4 {
			t.Fatalf("expected 4 argv entries, got %v", capture.argv)
		}
		if capture.argv[2] != "--transport" || capture.argv[3] != "sse" {
			t.Errorf("expected extra arguments after the entrypoint, got %v", capture.argv)
		}
	})

	t.Run("a failed exec is reported", func(t *testing.T) {
		t.Parallel()
		if !execSupported {
			t.Skip("process replacement is not supported on this platform")
		}

		dir, env := newServerDir(t)

		capture := &execCapture{err: errors.New("exec format error")}
		l := New(env,
			WithEntrypoint(filepath.Join(dir, DefaultEntrypoint)),
			WithMode(ModeExec),
			WithExecReplace(capture.fn),
			WithLogger(quietLogger()),
		)

		code, err := l.Launch(context.Background())
		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
		if !strings.Contains(err.Error(), "failed to exec") {
			t.Errorf("expected exec failure in error, got %q", err.Error())
		}
	})

	t.Run("missing environment aborts before any process starts", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		env := pyenv.NewEnv(filepath.Join(dir, pyenv.DefaultEnvDir))
		testutil.MustWriteFile(t, filepath.Join(dir, DefaultEntrypoint), []byte("print('serving')\n"), 0o644)

		capture := &execCapture{}
		recorder := newCommandRecorder()
		l := New(env,
			WithDir(dir),
			WithExecReplace(capture.fn),
			WithExecCommand(recorder.ExecCommand(t)),
			WithLogger(quietLogger()),
		)

		code, err := l.Launch(context.Background())
		if !errors.Is(err, pyenv.ErrEnvMissing) {
			t.Fatalf("expected ErrEnvMissing, got %v", err)
		}
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
		if capture.called {
			t.Error("expected no process replacement for a missing environment")
		}
		if len(recorder.Invocations) != 0 {
			t.Errorf("expected no spawned commands, got %v", recorder.Invocations)
		}
	})

	t.Run("corrupt environment aborts before any process starts", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		env := pyenv.NewEnv(filepath.Join(dir, pyenv.DefaultEnvDir))
		testutil.MustMkdirAll(t, env.Root(), 0o755)
		testutil.MustWriteFile(t, filepath.Join(dir, DefaultEntrypoint), []byte("print('serving')\n"), 0o644)

		capture := &execCapture{}
		l := New(env,
			WithDir(dir),
			WithExecReplace(capture.fn),
			WithLogger(quietLogger()),
		)

		_, err := l.Launch(context.Background())
		if !errors.Is(err, pyenv.ErrEnvCorrupt) {
			t.Fatalf("expected ErrEnvCorrupt, got %v", err)
		}
		if capture.called {
			t.Error("expected no process replacement for a corrupt environment")
		}
	})

	t.Run("missing entrypoint aborts before the server starts", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		env := newServerEnv(t, dir)

		capture := &execCapture{}
		recorder := newCommandRecorder()
		l := New(env,
			WithDir(dir),
			WithExecReplace(capture.fn),
			WithExecCommand(recorder.ExecCommand(t)),
			WithLogger(quietLogger()),
		)

		code, err := l.Launch(context.Background())
		if !errors.Is(err, ErrEntrypointNotFound) {
			t.Fatalf("expected ErrEntrypointNotFound, got %v", err)
		}
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}

		var notFoundErr *EntrypointNotFoundError
		if !errors.As(err, &notFoundErr) {
			t.Fatalf("expected EntrypointNotFoundError, got %T", err)
		}
		want := filepath.Join(dir, DefaultEntrypoint)
		if notFoundErr.Path != want {
			t.Errorf("expected path %q, got %q", want, notFoundErr.Path)
		}
		if capture.called || len(recorder.Invocations) != 0 {
			t.Error("expected no process to start without an entrypoint")
		}
	})

	t.Run("wait mode propagates the server exit code", func(t *testing.T) {
		t.Parallel()

		dir, env := newServerDir(t)

		recorder := newCommandRecorder()
		recorder.ExitCode = 3
		l := New(env,
			WithDir(dir),
			WithMode(ModeWait),
			WithExecCommand(recorder.ExecCommand(t)),
			WithStdio(nil, io.Discard, io.Discard),
			WithLogger(quietLogger()),
		)

		code, err := l.Launch(context.Background())
		if err != nil {
			t.Fatalf("expected a clean launch, got %v", err)
		}
		if code != 3 {
			t.Errorf("expected the server's exit code 3, got %d", code)
		}
	})

	t.Run("wait mode streams server output", func(t *testing.T) {
		t.Parallel()

		dir, env := newServerDir(t)

		recorder := newCommandRecorder()
		recorder.Stdout = "inventory server listening\n"
		var stdout bytes.Buffer
		l := New(env,
			WithDir(dir),
			WithMode(ModeWait),
			WithExecCommand(recorder.ExecCommand(t)),
			WithStdio(nil, &stdout, io.Discard),
			WithLogger(quietLogger()),
		)

		code, err := l.Launch(context.Background())
		if err != nil {
			t.Fatalf("expected a clean launch, got %v", err)
		}
		if code != 0 {
			t.Errorf("expected exit code 0, got %d", code)
		}
		if !strings.Contains(stdout.String(), "inventory server listening") {
			t.Errorf("expected server output in stdout, got %q", stdout.String())
		}
	})

	t.Run("wait mode resolves the entrypoint against the working directory", func(t *testing.T) {
		t.Parallel()

		dir, env := newServerDir(t)

		recorder := newCommandRecorder()
		l := New(env,
			WithDir(dir),
			WithMode(ModeWait),
			WithExecCommand(recorder.ExecCommand(t)),
			WithStdio(nil, io.Discard, io.Discard),
			WithLogger(quietLogger()),
		)

		if _, err := l.Launch(context.Background()); err != nil {
			t.Fatalf("expected a clean launch, got %v", err)
		}

		invocation := recorder.last(t)
		python, absErr := filepath.Abs(env.Python())
		if absErr != nil {
			t.Fatalf("failed to resolve interpreter path: %v", absErr)
		}
		if invocation.Name != python {
			t.Errorf("expected the environment python %q, got %q", python, invocation.Name)
		}
		want := filepath.Join(dir, DefaultEntrypoint)
		if len(invocation.Args) == 0 || invocation.Args[0] != want {
			t.Errorf("expected entrypoint %q, got args %v", want, invocation.Args)
		}
		if cmd := recorder.lastCmd(t); cmd.Dir != dir {
			t.Errorf("expected working directory %q, got %q", dir, cmd.Dir)
		}
	})

	t.Run("env files and overrides reach the server environment", func(t *testing.T) {
		t.Parallel()

		dir, env := newServerDir(t)
		testutil.MustWriteFile(t, filepath.Join(dir, ".env"),
			[]byte("STOCKROOM_LOG=debug\nFEATURE_MODE=file\n"), 0o644)

		recorder := newCommandRecorder()
		l := New(env,
			WithDir(dir),
			WithMode(ModeWait),
			WithEnvFiles(".env"),
			WithExtraEnv(map[string]string{"FEATURE_MODE": "cli"}),
			WithExecCommand(recorder.ExecCommand(t)),
			WithStdio(nil, io.Discard, io.Discard),
			WithLogger(quietLogger()),
		)

		if _, err := l.Launch(context.Background()); err != nil {
			t.Fatalf("expected a clean launch, got %v", err)
		}

		environ := recorder.lastCmd(t).Env
		if value, count := envValue(environ, "STOCKROOM_LOG"); count != 1 || value != "debug" {
			t.Errorf("expected STOCKROOM_LOG=debug once, got %q (%d entries)", value, count)
		}
		if value, count := envValue(environ, "FEATURE_MODE"); count != 1 || value != "cli" {
			t.Errorf("expected the explicit override FEATURE_MODE=cli, got %q (%d entries)", value, count)
		}
		if value, _ := envValue(environ, "VIRTUAL_ENV"); value != env.Root() {
			t.Errorf("expected VIRTUAL_ENV %q, got %q", env.Root(), value)
		}
	})

	t.Run("a missing required env file fails the launch", func(t *testing.T) {
		t.Parallel()

		dir, env := newServerDir(t)

		recorder := newCommandRecorder()
		l := New(env,
			WithDir(dir),
			WithMode(ModeWait),
			WithEnvFiles("absent.env"),
			WithExecCommand(recorder.ExecCommand(t)),
			WithLogger(quietLogger()),
		)

		_, err := l.Launch(context.Background())
		if err == nil {
			t.Fatal("expected an error for a missing env file, got nil")
		}
		if !strings.Contains(err.Error(), "failed to read env file") {
			t.Errorf("expected an env file error, got %q", err.Error())
		}
		if len(recorder.Invocations) != 0 {
			t.Error("expected no server process for a failed environment build")
		}
	})
}

func TestWithEntrypoint_EmptyKeepsDefault(t *testing.T) {
	t.Parallel()

	l := New(pyenv.NewEnv("venv"), WithEntrypoint(""), WithLogger(quietLogger()))
	if l.entrypoint != DefaultEntrypoint {
		t.Errorf("expected default entrypoint %q, got %q", DefaultEntrypoint, l.entrypoint)
	}
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	if got := ModeExec.String(); got != "exec" {
		t.Errorf("expected %q, got %q", "exec", got)
	}
	if got := ModeWait.String(); got != "wait" {
		t.Errorf("expected %q, got %q", "wait", got)
	}
}
