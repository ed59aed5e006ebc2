// SPDX-License-Identifier: MPL-2.0

package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stockroom/stockroom/internal/inventory"
	"github.com/stockroom/stockroom/internal/launch"
	"github.com/stockroom/stockroom/internal/manifest"
	"github.com/stockroom/stockroom/internal/pyenv"
	"github.com/stockroom/stockroom/internal/testutil"
	"github.com/stockroom/stockroom/pkg/platform"
)

// fakeVersionCommand substitutes a helper process that answers every
// interpreter invocation with the given stdout.
func fakeVersionCommand(stdout string) pyenv.ExecCommandFunc {
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.Command(os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			"GO_HELPER_STDOUT=" + stdout,
		}
		return cmd
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	os.Exit(0)
}

// fakePython drops an executable interpreter file into dir and returns
// its path. A path containing a separator makes exec.LookPath check the
// file directly, so Discover resolves it without touching PATH.
func fakePython(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter relies on the unix executable bit")
	}
	path := filepath.Join(dir, "python3")
	testutil.MustWriteFile(t, path, []byte("#!/bin/sh\nexit 0\n"), 0o755)
	return path
}

func writeEnvDir(t *testing.T, root string) {
	t.Helper()
	testutil.MustWriteFile(t, filepath.Join(root, "pyvenv.cfg"), []byte("home = /usr/bin\n"), 0o644)
	testutil.MustWriteFile(t, pyenv.NewEnv(root).Python(), nil, 0o755)
}

// healthyProject builds a project directory where every probe passes.
func healthyProject(t *testing.T) (dir, python string) {
	t.Helper()
	dir = t.TempDir()
	python = fakePython(t, filepath.Join(dir, "host"))
	testutil.MustWriteFile(t, filepath.Join(dir, manifest.RequirementsFileName), []byte("fastmcp\nuvicorn\n"), 0o644)
	testutil.MustWriteFile(t, filepath.Join(dir, launch.DefaultEntrypoint), []byte("print('serve')\n"), 0o644)
	testutil.MustWriteFile(t, filepath.Join(dir, inventory.ProductsFile), []byte("id,name\n1,Fan\n"), 0o644)
	testutil.MustWriteFile(t, filepath.Join(dir, inventory.SalesFile), []byte("sale_id,product_id\n101,1\n"), 0o644)
	writeEnvDir(t, filepath.Join(dir, pyenv.DefaultEnvDir))
	return dir, python
}

func testConfig(dir, python string) Config {
	return Config{
		Dir:           dir,
		PythonBinary:  python,
		ExecCommand:   fakeVersionCommand("Python 3.12.1"),
		DetectSandbox: func() platform.SandboxType { return platform.SandboxNone },
	}
}

func findCheck(t *testing.T, report *Report, name string) Check {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in report", name)
	return Check{}
}

func TestDoctor_HealthyProject(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	report := New(testConfig(dir, python)).Run(context.Background())

	if !report.Healthy() {
		t.Fatalf("expected healthy report, got:\n%s", report.Summary())
	}

	wantOrder := []string{
		CheckInterpreter, CheckVersion, CheckEnvPresent, CheckEnvLayout,
		CheckManifest, CheckEntrypoint, CheckData, CheckSandbox,
	}
	if len(report.Checks) != len(wantOrder) {
		t.Fatalf("got %d checks, want %d", len(report.Checks), len(wantOrder))
	}
	for i, name := range wantOrder {
		if report.Checks[i].Name != name {
			t.Errorf("check[%d] = %q, want %q", i, report.Checks[i].Name, name)
		}
		if report.Checks[i].Status != StatusOK {
			t.Errorf("check %q = %s (%s), want ok", name, report.Checks[i].Status, report.Checks[i].Detail)
		}
	}

	if got := findCheck(t, report, CheckVersion).Detail; got != "Python 3.12.1" {
		t.Errorf("version detail = %q, want %q", got, "Python 3.12.1")
	}
	if got := findCheck(t, report, CheckManifest).Detail; !strings.Contains(got, "(2 requirements)") {
		t.Errorf("manifest detail = %q, want requirement count", got)
	}

	if got := report.Meta["python"]; got != python {
		t.Errorf("meta python = %q, want %q", got, python)
	}
	if got, want := report.Meta["env root"], filepath.Join(dir, pyenv.DefaultEnvDir); got != want {
		t.Errorf("meta env root = %q, want %q", got, want)
	}
}

func TestDoctor_MissingInterpreter(t *testing.T) {
	t.Parallel()

	dir, _ := healthyProject(t)
	cfg := testConfig(dir, filepath.Join(dir, "no-such-python"))
	report := New(cfg).Run(context.Background())

	if report.Healthy() {
		t.Fatal("expected unhealthy report")
	}

	interp := findCheck(t, report, CheckInterpreter)
	if interp.Status != StatusFail {
		t.Errorf("interpreter check = %s, want fail", interp.Status)
	}
	if !strings.Contains(interp.Detail, "no-such-python") {
		t.Errorf("interpreter detail should name the configured binary, got %q", interp.Detail)
	}

	version := findCheck(t, report, CheckVersion)
	if version.Status != StatusWarn {
		t.Errorf("version check = %s, want warn", version.Status)
	}
	if !strings.Contains(version.Detail, "skipped") {
		t.Errorf("version detail = %q, want skipped marker", version.Detail)
	}

	if _, ok := report.Meta["python"]; ok {
		t.Error("meta should omit python when discovery failed")
	}
}

func TestDoctor_OldInterpreter(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	cfg := testConfig(dir, python)
	cfg.ExecCommand = fakeVersionCommand("Python 3.9.2")
	report := New(cfg).Run(context.Background())

	version := findCheck(t, report, CheckVersion)
	if version.Status != StatusFail {
		t.Fatalf("version check = %s, want fail", version.Status)
	}
	if !strings.Contains(version.Detail, "3.9.2") || !strings.Contains(version.Detail, "below the required 3.10") {
		t.Errorf("version detail = %q, want floor comparison", version.Detail)
	}
}

func TestDoctor_MissingEnvironment(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	if err := os.RemoveAll(filepath.Join(dir, pyenv.DefaultEnvDir)); err != nil {
		t.Fatalf("failed to remove env dir: %v", err)
	}
	report := New(testConfig(dir, python)).Run(context.Background())

	present := findCheck(t, report, CheckEnvPresent)
	if present.Status != StatusFail {
		t.Errorf("present check = %s, want fail", present.Status)
	}
	if !strings.Contains(present.Detail, "stockroom provision") {
		t.Errorf("present detail = %q, want provision hint", present.Detail)
	}

	layout := findCheck(t, report, CheckEnvLayout)
	if layout.Status != StatusWarn || !strings.Contains(layout.Detail, "skipped") {
		t.Errorf("layout check = %s (%s), want skipped warning", layout.Status, layout.Detail)
	}
}

func TestDoctor_CorruptEnvironment(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	if err := os.Remove(filepath.Join(dir, pyenv.DefaultEnvDir, "pyvenv.cfg")); err != nil {
		t.Fatalf("failed to remove pyvenv.cfg: %v", err)
	}
	report := New(testConfig(dir, python)).Run(context.Background())

	if findCheck(t, report, CheckEnvPresent).Status != StatusOK {
		t.Error("present check should pass for an existing directory")
	}

	layout := findCheck(t, report, CheckEnvLayout)
	if layout.Status != StatusFail {
		t.Errorf("layout check = %s, want fail", layout.Status)
	}
	if !strings.Contains(layout.Detail, "pyvenv.cfg") {
		t.Errorf("layout detail = %q, want pyvenv.cfg reason", layout.Detail)
	}
}

func TestDoctor_MissingManifest(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	if err := os.Remove(filepath.Join(dir, manifest.RequirementsFileName)); err != nil {
		t.Fatalf("failed to remove manifest: %v", err)
	}
	report := New(testConfig(dir, python)).Run(context.Background())

	check := findCheck(t, report, CheckManifest)
	if check.Status != StatusFail {
		t.Errorf("manifest check = %s, want fail", check.Status)
	}
	if !strings.Contains(check.Detail, "no dependency manifest") {
		t.Errorf("manifest detail = %q, want detection error", check.Detail)
	}
}

func TestDoctor_PinnedManifest(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	pinned := filepath.Join(dir, "requirements-dev.txt")
	testutil.MustWriteFile(t, pinned, []byte("fastmcp\nuvicorn\npytest\n"), 0o644)

	cfg := testConfig(dir, python)
	cfg.ManifestPath = pinned
	report := New(cfg).Run(context.Background())

	check := findCheck(t, report, CheckManifest)
	if check.Status != StatusOK {
		t.Fatalf("manifest check = %s (%s), want ok", check.Status, check.Detail)
	}
	if !strings.Contains(check.Detail, "requirements-dev.txt") || !strings.Contains(check.Detail, "(3 requirements)") {
		t.Errorf("manifest detail = %q, want pinned path and count", check.Detail)
	}

	cfg.ManifestPath = filepath.Join(dir, "absent.txt")
	check = findCheck(t, New(cfg).Run(context.Background()), CheckManifest)
	if check.Status != StatusFail {
		t.Errorf("manifest check = %s, want fail for missing pinned file", check.Status)
	}
}

func TestDoctor_MissingEntrypoint(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	if err := os.Remove(filepath.Join(dir, launch.DefaultEntrypoint)); err != nil {
		t.Fatalf("failed to remove entrypoint: %v", err)
	}
	report := New(testConfig(dir, python)).Run(context.Background())

	check := findCheck(t, report, CheckEntrypoint)
	if check.Status != StatusFail {
		t.Errorf("entrypoint check = %s, want fail", check.Status)
	}
	if !strings.Contains(check.Detail, launch.DefaultEntrypoint) {
		t.Errorf("entrypoint detail = %q, want script path", check.Detail)
	}
}

func TestDoctor_MissingData(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	if err := os.Remove(filepath.Join(dir, inventory.SalesFile)); err != nil {
		t.Fatalf("failed to remove sales file: %v", err)
	}
	report := New(testConfig(dir, python)).Run(context.Background())

	check := findCheck(t, report, CheckData)
	if check.Status != StatusWarn {
		t.Errorf("data check = %s, want warn", check.Status)
	}
	if !strings.Contains(check.Detail, inventory.SalesFile) {
		t.Errorf("data detail = %q, want missing file name", check.Detail)
	}

	// Missing data degrades answers but does not block the server.
	if !report.Healthy() {
		t.Error("report should stay healthy on missing data")
	}
}

func TestDoctor_SandboxDetected(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	cfg := testConfig(dir, python)
	cfg.DetectSandbox = func() platform.SandboxType { return platform.SandboxFlatpak }
	report := New(cfg).Run(context.Background())

	check := findCheck(t, report, CheckSandbox)
	if check.Status != StatusWarn {
		t.Errorf("sandbox check = %s, want warn", check.Status)
	}
	if !strings.Contains(check.Detail, "flatpak") {
		t.Errorf("sandbox detail = %q, want sandbox name", check.Detail)
	}
	if !report.Healthy() {
		t.Error("sandbox warning should not make the report unhealthy")
	}
}

func TestDoctor_AbsoluteEnvDir(t *testing.T) {
	t.Parallel()

	dir, python := healthyProject(t)
	envRoot := filepath.Join(t.TempDir(), "elsewhere")
	writeEnvDir(t, envRoot)

	cfg := testConfig(dir, python)
	cfg.EnvDir = envRoot
	report := New(cfg).Run(context.Background())

	if got := report.Meta["env root"]; got != envRoot {
		t.Errorf("meta env root = %q, want %q", got, envRoot)
	}
	if findCheck(t, report, CheckEnvPresent).Status != StatusOK {
		t.Error("absolute env dir should be probed directly")
	}
}
