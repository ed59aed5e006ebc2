// SPDX-License-Identifier: MPL-2.0

package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stockroom/stockroom/internal/inventory"
	"github.com/stockroom/stockroom/internal/launch"
	"github.com/stockroom/stockroom/internal/manifest"
	"github.com/stockroom/stockroom/internal/provision"
	"github.com/stockroom/stockroom/internal/pyenv"
	"github.com/stockroom/stockroom/pkg/platform"
	"github.com/stockroom/stockroom/pkg/types"
)

type (
	// Config selects what the doctor examines. The zero value inspects
	// the current directory with the provisioning defaults.
	Config struct {
		// Dir is the project directory to diagnose. Defaults to ".".
		Dir string
		// EnvDir is the virtual environment directory, joined onto Dir
		// unless absolute. Defaults to pyenv.DefaultEnvDir.
		EnvDir string
		// PythonBinary pins the host interpreter instead of probing PATH.
		PythonBinary string
		// MinVersion is the interpreter version floor. The zero value
		// means provision.DefaultMinVersion.
		MinVersion types.PythonVersion
		// ManifestPath pins the manifest file. Empty runs fixed-name
		// detection in Dir.
		ManifestPath string
		// Entrypoint is the server script, resolved against Dir unless
		// absolute. Defaults to launch.DefaultEntrypoint.
		Entrypoint string
		// DataDir holds the inventory CSV files. Defaults to Dir.
		DataDir string
		// ExecCommand overrides subprocess creation for tests.
		ExecCommand pyenv.ExecCommandFunc
		// DetectSandbox overrides sandbox detection for tests.
		DetectSandbox func() platform.SandboxType
	}

	// Doctor runs read-only probes against a project directory and its
	// environment. It never mutates anything it inspects.
	Doctor struct {
		cfg Config
	}
)

// Probe names, in report order.
const (
	CheckInterpreter = "host interpreter"
	CheckVersion     = "interpreter version"
	CheckEnvPresent  = "environment present"
	CheckEnvLayout   = "environment layout"
	CheckManifest    = "dependency manifest"
	CheckEntrypoint  = "server entrypoint"
	CheckData        = "inventory data"
	CheckSandbox     = "host sandbox"
)

// New creates a Doctor, filling unset Config fields with the same
// defaults provisioning uses so the report matches what `stockroom
// provision` and `stockroom run` would actually do.
func New(cfg Config) *Doctor {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.EnvDir == "" {
		cfg.EnvDir = pyenv.DefaultEnvDir
	}
	if cfg.Entrypoint == "" {
		cfg.Entrypoint = launch.DefaultEntrypoint
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfg.Dir
	}
	if cfg.MinVersion == (types.PythonVersion{}) {
		cfg.MinVersion = provision.DefaultMinVersion
	}
	if cfg.DetectSandbox == nil {
		cfg.DetectSandbox = platform.DetectSandbox
	}
	return &Doctor{cfg: cfg}
}

// Run executes every probe and returns the collected report. Probes are
// independent: a failure never stops the remaining checks, though a
// probe may report itself skipped when its subject depends on an
// earlier failure (version needs an interpreter, layout needs an
// environment).
func (d *Doctor) Run(ctx context.Context) *Report {
	var opts []pyenv.InterpreterOption
	if d.cfg.ExecCommand != nil {
		opts = append(opts, pyenv.WithExecCommand(d.cfg.ExecCommand))
	}
	interp := pyenv.Discover(d.cfg.PythonBinary, opts...)
	env := pyenv.NewEnv(d.envRoot())

	report := &Report{
		Dir: d.cfg.Dir,
		Meta: map[string]string{
			"project dir": d.cfg.Dir,
			"env root":    env.Root(),
			"data dir":    d.cfg.DataDir,
		},
	}
	if interp.Path() != "" {
		report.Meta["python"] = interp.Path()
	}

	report.Checks = append(report.Checks,
		d.checkInterpreter(interp),
		d.checkVersion(ctx, interp),
		d.checkEnvPresent(env),
		d.checkEnvLayout(env),
		d.checkManifest(),
		d.checkEntrypoint(),
		d.checkData(),
		d.checkSandbox(),
	)
	return report
}

// envRoot resolves the environment directory the same way provisioning
// does: absolute paths win, everything else is joined onto Dir.
func (d *Doctor) envRoot() string {
	if filepath.IsAbs(d.cfg.EnvDir) {
		return d.cfg.EnvDir
	}
	return filepath.Join(d.cfg.Dir, d.cfg.EnvDir)
}

func (d *Doctor) checkInterpreter(interp *pyenv.Interpreter) Check {
	check := Check{Name: CheckInterpreter, Status: StatusOK}
	if interp.Path() == "" {
		check.Status = StatusFail
		if d.cfg.PythonBinary != "" {
			check.Detail = fmt.Sprintf("configured interpreter %q not found", d.cfg.PythonBinary)
		} else {
			check.Detail = fmt.Sprintf("no interpreter on PATH (tried %s)", strings.Join(pyenv.DefaultCandidates, ", "))
		}
		return check
	}
	check.Detail = interp.Path()
	return check
}

func (d *Doctor) checkVersion(ctx context.Context, interp *pyenv.Interpreter) Check {
	check := Check{Name: CheckVersion}
	if interp.Path() == "" {
		check.Status = StatusWarn
		check.Detail = "skipped: no interpreter to probe"
		return check
	}
	version, err := interp.Version(ctx)
	if err != nil {
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("version probe failed: %v", err)
		return check
	}
	if !version.AtLeast(d.cfg.MinVersion) {
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("Python %s is below the required %s", version, d.cfg.MinVersion)
		return check
	}
	check.Status = StatusOK
	check.Detail = fmt.Sprintf("Python %s", version)
	return check
}

func (d *Doctor) checkEnvPresent(env *pyenv.Env) Check {
	check := Check{Name: CheckEnvPresent}
	if !env.Exists() {
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("%s not provisioned; run `stockroom provision`", env.Root())
		return check
	}
	check.Status = StatusOK
	check.Detail = env.Root()
	return check
}

func (d *Doctor) checkEnvLayout(env *pyenv.Env) Check {
	check := Check{Name: CheckEnvLayout}
	if !env.Exists() {
		check.Status = StatusWarn
		check.Detail = "skipped: environment not present"
		return check
	}
	if err := env.Validate(); err != nil {
		check.Status = StatusFail
		check.Detail = err.Error()
		return check
	}
	check.Status = StatusOK
	check.Detail = "pyvenv.cfg and interpreter in place"
	return check
}

func (d *Doctor) checkManifest() Check {
	check := Check{Name: CheckManifest}
	path := d.cfg.ManifestPath
	if path == "" {
		detected, _, err := manifest.Detect(d.cfg.Dir)
		if err != nil {
			check.Status = StatusFail
			check.Detail = err.Error()
			return check
		}
		path = detected
	}
	m, err := manifest.Load(path)
	if err != nil {
		check.Status = StatusFail
		check.Detail = err.Error()
		return check
	}
	check.Status = StatusOK
	check.Detail = fmt.Sprintf("%s (%d requirements)", m.Path, len(m.Requirements))
	return check
}

func (d *Doctor) checkEntrypoint() Check {
	check := Check{Name: CheckEntrypoint}
	path := d.cfg.Entrypoint
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.cfg.Dir, path)
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("%s not found", path)
	case info.IsDir():
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("%s is a directory, not a script", path)
	default:
		check.Status = StatusOK
		check.Detail = path
	}
	return check
}

// checkData warns rather than fails on missing CSVs: the MCP server
// starts with empty tables and serves `[]`, so absent data degrades the
// answers without breaking the process.
func (d *Doctor) checkData() Check {
	check := Check{Name: CheckData}
	var missing []string
	for _, name := range []string{inventory.ProductsFile, inventory.SalesFile} {
		if _, err := os.Stat(filepath.Join(d.cfg.DataDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("missing %s; the server starts with empty tables", strings.Join(missing, ", "))
		return check
	}
	check.Status = StatusOK
	check.Detail = fmt.Sprintf("%s and %s present", inventory.ProductsFile, inventory.SalesFile)
	return check
}

func (d *Doctor) checkSandbox() Check {
	check := Check{Name: CheckSandbox}
	sandbox := d.cfg.DetectSandbox()
	if sandbox != platform.SandboxNone {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("running inside %s; subprocesses resolve against the sandbox filesystem", sandbox)
		return check
	}
	check.Status = StatusOK
	check.Detail = "none detected"
	return check
}
