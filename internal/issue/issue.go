// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PythonNotFoundId Id = iota + 1
	PythonTooOldId
	EnvMissingId
	EnvInvalidId
	ManifestNotFoundId
	ManifestParseErrorId
	PipInstallFailedId
	EntrypointNotFoundId
	ConfigLoadFailedId
	PortInUseId
	DataFileMissingId
	ConsoleStartFailedId
	HookFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // links into the project docs, once those are hosted
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	pythonNotFoundIssue = &Issue{
		id: PythonNotFoundId,
		mdMsg: `
# Python interpreter not found!

We could not find a Python interpreter on your PATH.

## Things you can try:
- Install Python 3.10 or newer:
  - Linux: ` + "`sudo apt install python3`" + ` or ` + "`sudo dnf install python3`" + `
  - macOS: ` + "`brew install python@3.12`" + `
  - Windows: https://www.python.org/downloads/

- Point stockroom at a specific interpreter:
~~~cue
python: {
    binary: "/usr/local/bin/python3.12"
}
~~~

- Check what the doctor sees:
~~~
$ stockroom doctor
~~~`,
		extLinks: []HttpLink{"https://www.python.org/downloads/"},
	}

	pythonTooOldIssue = &Issue{
		id: PythonTooOldId,
		mdMsg: `
# Python interpreter too old!

The interpreter we found is older than the minimum supported version.
The inventory server relies on language features introduced in Python
3.10, so older interpreters cannot run it.

## Things you can try:
- Install a newer Python alongside the system one
- Point stockroom at it explicitly:
~~~cue
python: {
    binary: "python3.12"
}
~~~

- Verify what gets detected:
~~~
$ stockroom doctor
~~~`,
	}

	envMissingIssue = &Issue{
		id: EnvMissingId,
		mdMsg: `
# Environment not provisioned!

The virtual environment directory does not exist yet, so there is
nothing to launch the server from.

## Things you can try:
- Provision it:
~~~
$ stockroom provision
~~~

- If you keep the environment somewhere unusual, set the directory:
~~~cue
env: {
    dir: ".venv"
}
~~~`,
	}

	envInvalidIssue = &Issue{
		id: EnvInvalidId,
		mdMsg: `
# Environment directory is not a usable virtual environment!

The directory exists but is missing the markers of a virtual
environment (pyvenv.cfg and an interpreter under its bin directory).

## Common causes:
- The directory was created by something other than stockroom
- A provisioning run was interrupted halfway
- The interpreter the environment was built from has been removed

## Things you can try:
- Re-provision in place:
~~~
$ stockroom provision
~~~

- Or remove the directory and start clean:
~~~
$ rm -rf venv && stockroom provision
~~~`,
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No dependency manifest found!

We searched for a dependency manifest but found neither a
requirements.txt nor a pyproject.toml.

## Search order:
1. requirements.txt
2. pyproject.toml

## Things you can try:
- Create a requirements.txt listing the server's dependencies:
~~~
fastmcp>=2.0
uvicorn
~~~

- Or point stockroom at an existing manifest:
~~~cue
manifest: {
    path: "deps/requirements.txt"
}
~~~`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse the dependency manifest!

The manifest exists but could not be read as a dependency list.

## Common issues:
- pyproject.toml with invalid TOML syntax
- pyproject.toml without a [project] table
- A requirements.txt line continuation (trailing backslash) on the last line

## Things you can try:
- Check the error message above for the specific line
- Validate pyproject.toml with any TOML linter
- Run with verbose mode for more details:
~~~
$ stockroom --verbose provision
~~~`,
		extLinks: []HttpLink{"https://pip.pypa.io/en/stable/reference/requirements-file-format/"},
	}

	pipInstallFailedIssue = &Issue{
		id: PipInstallFailedId,
		mdMsg: `
# Dependency installation failed!

pip exited with an error while installing from the manifest.

## Common causes:
- No network access to the package index
- A pinned version that does not exist
- A package that needs build tools missing from this machine

## Things you can try:
- Re-run with verbose mode to see the full pip output:
~~~
$ stockroom --verbose provision
~~~

- Point pip at a mirror if your network blocks pypi.org:
~~~cue
pip: {
    index_url: "https://mirror.example.com/simple"
}
~~~`,
		extLinks: []HttpLink{"https://pip.pypa.io/en/stable/"},
	}

	entrypointNotFoundIssue = &Issue{
		id: EntrypointNotFoundId,
		mdMsg: `
# Server entrypoint not found!

The Python file that implements the inventory server is missing from
the expected location.

## Things you can try:
- Check the entrypoint path in your config:
~~~cue
server: {
    entrypoint: "inventory_server.py"
}
~~~

- Run from the project directory that contains the server script
- See what the doctor sees:
~~~
$ stockroom doctor
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the stockroom configuration file.

## Configuration file locations:
- Linux: ~/.config/stockroom/config.cue
- macOS: ~/Library/Application Support/stockroom/config.cue
- Windows: %APPDATA%\stockroom\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ stockroom config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/stockroom/config.cue
~~~

## Example configuration:
~~~cue
python: {
    min_version: "3.10"
}
env: {
    dir: "venv"
}
server: {
    host: "0.0.0.0"
    port: 8080
}
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	portInUseIssue = &Issue{
		id: PortInUseId,
		mdMsg: `
# Address already in use!

The inventory server could not bind its listen address.

## Things you can try:
- Find what is holding the port:
~~~
$ ss -ltnp | grep 8080
~~~

- Pick a different port:
~~~cue
server: {
    port: 9090
}
~~~

- Or for a one-off run:
~~~
$ stockroom serve --port 9090
~~~`,
	}

	dataFileMissingIssue = &Issue{
		id: DataFileMissingId,
		mdMsg: `
# Inventory data file missing!

The server reads its product and sales data from CSV files in the data
directory, and at least one of them is missing. The server still starts
with an empty dataset, but tool calls will return empty results.

## Expected files:
- products.csv
- sales_data.csv

## Things you can try:
- Point stockroom at the directory that holds the files:
~~~cue
server: {
    data_dir: "./data"
}
~~~

- Check which paths get probed:
~~~
$ stockroom doctor
~~~`,
	}

	consoleStartFailedIssue = &Issue{
		id: ConsoleStartFailedId,
		mdMsg: `
# Dang, we have run into an issue!

The admin console failed to start its SSH listener under conditions we
did not expect.

## Things you can try:
- Run the doctor and try again:
~~~
$ stockroom doctor
~~~

- Start the console on another port:
~~~
$ stockroom console --port 2223
~~~`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# Provision hook failed!

A pre or post provision hook exited with an error, so provisioning was
halted.

## Things you can try:
- Test the hook script on its own
- Remove or fix the hook in your config:
~~~cue
hooks: {
    pre_provision: "scripts/fetch-wheels.sh"
}
~~~

- Run with verbose mode for the hook's output:
~~~
$ stockroom --verbose provision
~~~`,
	}

	issues = map[Id]*Issue{
		pythonNotFoundIssue.Id():     pythonNotFoundIssue,
		pythonTooOldIssue.Id():       pythonTooOldIssue,
		envMissingIssue.Id():         envMissingIssue,
		envInvalidIssue.Id():         envInvalidIssue,
		manifestNotFoundIssue.Id():   manifestNotFoundIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		pipInstallFailedIssue.Id():   pipInstallFailedIssue,
		entrypointNotFoundIssue.Id(): entrypointNotFoundIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		portInUseIssue.Id():          portInUseIssue,
		dataFileMissingIssue.Id():    dataFileMissingIssue,
		consoleStartFailedIssue.Id(): consoleStartFailedIssue,
		hookFailedIssue.Id():         hookFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
