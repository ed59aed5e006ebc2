// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stockroom/stockroom/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidBinaryFilePath is returned when a BinaryFilePath value is whitespace-only.
	ErrInvalidBinaryFilePath = errors.New("invalid binary file path")
	// ErrInvalidEnvDirPath is returned when an EnvDirPath value is empty or whitespace-only.
	ErrInvalidEnvDirPath = errors.New("invalid environment dir path")
	// ErrInvalidManifestPath is returned when a ManifestPath value is whitespace-only.
	ErrInvalidManifestPath = errors.New("invalid manifest path")
	// ErrInvalidEntrypointPath is returned when an EntrypointPath value is empty or whitespace-only.
	ErrInvalidEntrypointPath = errors.New("invalid entrypoint path")
	// ErrInvalidHostAddr is returned when a HostAddr value is empty or whitespace-only.
	ErrInvalidHostAddr = errors.New("invalid host address")
	// ErrInvalidDataDirPath is returned when a DataDirPath value is whitespace-only.
	ErrInvalidDataDirPath = errors.New("invalid data dir path")
	// ErrInvalidIndexURL is returned when an IndexURL value is whitespace-only.
	ErrInvalidIndexURL = errors.New("invalid index URL")
	// ErrInvalidHookScript is returned when a HookScript value is whitespace-only.
	ErrInvalidHookScript = errors.New("invalid hook script")
	// ErrInvalidVersionSpec is the sentinel error wrapped by InvalidVersionSpecError.
	ErrInvalidVersionSpec = errors.New("invalid version spec")
	// ErrInvalidPythonConfig is the sentinel error wrapped by InvalidPythonConfigError.
	ErrInvalidPythonConfig = errors.New("invalid python config")
	// ErrInvalidEnvConfig is the sentinel error wrapped by InvalidEnvConfigError.
	ErrInvalidEnvConfig = errors.New("invalid env config")
	// ErrInvalidManifestConfig is the sentinel error wrapped by InvalidManifestConfigError.
	ErrInvalidManifestConfig = errors.New("invalid manifest config")
	// ErrInvalidServerConfig is the sentinel error wrapped by InvalidServerConfigError.
	ErrInvalidServerConfig = errors.New("invalid server config")
	// ErrInvalidPipConfig is the sentinel error wrapped by InvalidPipConfigError.
	ErrInvalidPipConfig = errors.New("invalid pip config")
	// ErrInvalidHooksConfig is the sentinel error wrapped by InvalidHooksConfigError.
	ErrInvalidHooksConfig = errors.New("invalid hooks config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// BinaryFilePath represents a filesystem path or command name for the Python
	// interpreter. The zero value ("") is valid and means "look up python3 on PATH".
	// Non-zero values must not be whitespace-only.
	BinaryFilePath string

	// InvalidBinaryFilePathError is returned when a BinaryFilePath value is
	// non-empty but whitespace-only.
	InvalidBinaryFilePathError struct {
		Value BinaryFilePath
	}

	// EnvDirPath represents the directory path of the virtual environment,
	// resolved relative to the working directory when not absolute.
	// A valid path must be non-empty and not whitespace-only.
	EnvDirPath string

	// InvalidEnvDirPathError is returned when an EnvDirPath value is empty or
	// whitespace-only. It wraps ErrInvalidEnvDirPath for errors.Is().
	InvalidEnvDirPathError struct {
		Value EnvDirPath
	}

	// ManifestPath represents a filesystem path to a dependency manifest.
	// The zero value ("") is valid and means "detect by fixed-name lookup".
	// Non-zero values must not be whitespace-only.
	ManifestPath string

	// InvalidManifestPathError is returned when a ManifestPath value is
	// non-empty but whitespace-only.
	InvalidManifestPathError struct {
		Value ManifestPath
	}

	// EntrypointPath represents the path to the Python entrypoint script.
	// A valid path must be non-empty and not whitespace-only.
	EntrypointPath string

	// InvalidEntrypointPathError is returned when an EntrypointPath value is
	// empty or whitespace-only. It wraps ErrInvalidEntrypointPath for errors.Is().
	InvalidEntrypointPathError struct {
		Value EntrypointPath
	}

	// HostAddr represents the listen host for the inventory server.
	// A valid value must be non-empty and not whitespace-only.
	HostAddr string

	// InvalidHostAddrError is returned when a HostAddr value is empty or
	// whitespace-only. It wraps ErrInvalidHostAddr for errors.Is().
	InvalidHostAddrError struct {
		Value HostAddr
	}

	// DataDirPath represents the directory that holds the CSV data files.
	// The zero value ("") is valid and means "use the working directory".
	// Non-zero values must not be whitespace-only.
	DataDirPath string

	// InvalidDataDirPathError is returned when a DataDirPath value is
	// non-empty but whitespace-only.
	InvalidDataDirPathError struct {
		Value DataDirPath
	}

	// IndexURL represents an alternate package index URL for pip.
	// The zero value ("") is valid and means "use pip's default index".
	// Non-zero values must not be whitespace-only.
	IndexURL string

	// InvalidIndexURLError is returned when an IndexURL value is
	// non-empty but whitespace-only.
	InvalidIndexURLError struct {
		Value IndexURL
	}

	// HookScript represents an inline shell snippet run around provisioning
	// by the embedded POSIX interpreter. A bare path to a script file is a
	// valid snippet. The zero value ("") is valid and means "no hook".
	// Non-zero values must not be whitespace-only.
	HookScript string

	// InvalidHookScriptError is returned when a HookScript value is
	// non-empty but whitespace-only.
	InvalidHookScriptError struct {
		Value HookScript
	}

	// VersionSpec represents a minimum interpreter version in "major.minor"
	// or "major.minor.micro" form. A valid spec must parse as a PythonVersion.
	VersionSpec string

	// InvalidVersionSpecError is returned when a VersionSpec cannot be parsed.
	// It wraps ErrInvalidVersionSpec for errors.Is() compatibility.
	InvalidVersionSpecError struct {
		Value VersionSpec
	}

	// InvalidPythonConfigError is returned when a PythonConfig has invalid fields.
	// It wraps ErrInvalidPythonConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidPythonConfigError struct {
		FieldErrors []error
	}

	// InvalidEnvConfigError is returned when an EnvConfig has invalid fields.
	// It wraps ErrInvalidEnvConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidEnvConfigError struct {
		FieldErrors []error
	}

	// InvalidManifestConfigError is returned when a ManifestConfig has invalid fields.
	// It wraps ErrInvalidManifestConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidManifestConfigError struct {
		FieldErrors []error
	}

	// InvalidServerConfigError is returned when a ServerConfig has invalid fields.
	// It wraps ErrInvalidServerConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidServerConfigError struct {
		FieldErrors []error
	}

	// InvalidPipConfigError is returned when a PipConfig has invalid fields.
	// It wraps ErrInvalidPipConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidPipConfigError struct {
		FieldErrors []error
	}

	// InvalidHooksConfigError is returned when a HooksConfig has invalid fields.
	// It wraps ErrInvalidHooksConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidHooksConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Python configures interpreter discovery and the version floor.
		Python PythonConfig `json:"python" mapstructure:"python"`
		// Env configures virtual environment placement.
		Env EnvConfig `json:"env" mapstructure:"env"`
		// Manifest configures dependency manifest lookup.
		Manifest ManifestConfig `json:"manifest" mapstructure:"manifest"`
		// Server configures the inventory server process.
		Server ServerConfig `json:"server" mapstructure:"server"`
		// Pip configures dependency installation.
		Pip PipConfig `json:"pip" mapstructure:"pip"`
		// Hooks configures provision hook scripts.
		Hooks HooksConfig `json:"hooks" mapstructure:"hooks"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// PythonConfig configures interpreter discovery.
	PythonConfig struct {
		// Binary overrides the interpreter command or path ("" = python3 from PATH).
		Binary BinaryFilePath `json:"binary,omitempty" mapstructure:"binary"`
		// MinVersion is the minimum interpreter version required for provisioning.
		MinVersion VersionSpec `json:"min_version" mapstructure:"min_version"`
	}

	// EnvConfig configures virtual environment placement.
	EnvConfig struct {
		// Dir is the virtual environment directory, relative to the working directory.
		Dir EnvDirPath `json:"dir" mapstructure:"dir"`
	}

	// ManifestConfig configures dependency manifest lookup.
	ManifestConfig struct {
		// Path overrides fixed-name manifest detection ("" = detect).
		Path ManifestPath `json:"path,omitempty" mapstructure:"path"`
	}

	// ServerConfig configures the inventory server process.
	ServerConfig struct {
		// Entrypoint is the Python script that implements the server.
		Entrypoint EntrypointPath `json:"entrypoint" mapstructure:"entrypoint"`
		// Host is the listen host for HTTP transports.
		Host HostAddr `json:"host" mapstructure:"host"`
		// Port is the listen port for HTTP transports.
		Port types.ListenPort `json:"port" mapstructure:"port"`
		// DataDir is the directory that holds products.csv and sales_data.csv.
		DataDir DataDirPath `json:"data_dir,omitempty" mapstructure:"data_dir"`
	}

	// PipConfig configures dependency installation.
	PipConfig struct {
		// IndexURL overrides pip's package index ("" = default index).
		IndexURL IndexURL `json:"index_url,omitempty" mapstructure:"index_url"`
	}

	// HooksConfig configures provision hook scripts, run through the embedded
	// POSIX shell interpreter before and after the provisioning pipeline.
	HooksConfig struct {
		// PreProvision runs before the first pipeline step ("" = no hook).
		PreProvision HookScript `json:"pre_provision,omitempty" mapstructure:"pre_provision"`
		// PostProvision runs after the last pipeline step ("" = no hook).
		PostProvision HookScript `json:"post_provision,omitempty" mapstructure:"post_provision"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// String returns the string representation of the BinaryFilePath.
func (p BinaryFilePath) String() string { return string(p) }

// IsValid returns whether the BinaryFilePath is valid.
// The zero value ("") is valid (means "look up python3 on PATH").
// Non-zero values must not be whitespace-only.
func (p BinaryFilePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidBinaryFilePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidBinaryFilePathError.
func (e *InvalidBinaryFilePathError) Error() string {
	return fmt.Sprintf("invalid binary file path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidBinaryFilePath for errors.Is() compatibility.
func (e *InvalidBinaryFilePathError) Unwrap() error { return ErrInvalidBinaryFilePath }

// String returns the string representation of the EnvDirPath.
func (p EnvDirPath) String() string { return string(p) }

// IsValid returns whether the EnvDirPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p EnvDirPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidEnvDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEnvDirPathError.
func (e *InvalidEnvDirPathError) Error() string {
	return fmt.Sprintf("invalid environment dir path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidEnvDirPath for errors.Is() compatibility.
func (e *InvalidEnvDirPathError) Unwrap() error { return ErrInvalidEnvDirPath }

// String returns the string representation of the ManifestPath.
func (p ManifestPath) String() string { return string(p) }

// IsValid returns whether the ManifestPath is valid.
// The zero value ("") is valid (means "detect by fixed-name lookup").
// Non-zero values must not be whitespace-only.
func (p ManifestPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidManifestPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidManifestPathError.
func (e *InvalidManifestPathError) Error() string {
	return fmt.Sprintf("invalid manifest path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidManifestPath for errors.Is() compatibility.
func (e *InvalidManifestPathError) Unwrap() error { return ErrInvalidManifestPath }

// String returns the string representation of the EntrypointPath.
func (p EntrypointPath) String() string { return string(p) }

// IsValid returns whether the EntrypointPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p EntrypointPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidEntrypointPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEntrypointPathError.
func (e *InvalidEntrypointPathError) Error() string {
	return fmt.Sprintf("invalid entrypoint path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidEntrypointPath for errors.Is() compatibility.
func (e *InvalidEntrypointPathError) Unwrap() error { return ErrInvalidEntrypointPath }

// String returns the string representation of the HostAddr.
func (h HostAddr) String() string { return string(h) }

// IsValid returns whether the HostAddr is valid.
// A valid value must be non-empty and not whitespace-only.
func (h HostAddr) IsValid() (bool, []error) {
	if strings.TrimSpace(string(h)) == "" {
		return false, []error{&InvalidHostAddrError{Value: h}}
	}
	return true, nil
}

// Error implements the error interface for InvalidHostAddrError.
func (e *InvalidHostAddrError) Error() string {
	return fmt.Sprintf("invalid host address %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidHostAddr for errors.Is() compatibility.
func (e *InvalidHostAddrError) Unwrap() error { return ErrInvalidHostAddr }

// String returns the string representation of the DataDirPath.
func (p DataDirPath) String() string { return string(p) }

// IsValid returns whether the DataDirPath is valid.
// The zero value ("") is valid (means "use the working directory").
// Non-zero values must not be whitespace-only.
func (p DataDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDataDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDataDirPathError.
func (e *InvalidDataDirPathError) Error() string {
	return fmt.Sprintf("invalid data dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDataDirPath for errors.Is() compatibility.
func (e *InvalidDataDirPathError) Unwrap() error { return ErrInvalidDataDirPath }

// String returns the string representation of the IndexURL.
func (u IndexURL) String() string { return string(u) }

// IsValid returns whether the IndexURL is valid.
// The zero value ("") is valid (means "use pip's default index").
// Non-zero values must not be whitespace-only.
func (u IndexURL) IsValid() (bool, []error) {
	if u == "" {
		return true, nil
	}
	if strings.TrimSpace(string(u)) == "" {
		return false, []error{&InvalidIndexURLError{Value: u}}
	}
	return true, nil
}

// Error implements the error interface for InvalidIndexURLError.
func (e *InvalidIndexURLError) Error() string {
	return fmt.Sprintf("invalid index URL %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidIndexURL for errors.Is() compatibility.
func (e *InvalidIndexURLError) Unwrap() error { return ErrInvalidIndexURL }

// String returns the string representation of the HookScript.
func (p HookScript) String() string { return string(p) }

// IsValid returns whether the HookScript is valid.
// The zero value ("") is valid (means "no hook").
// Non-zero values must not be whitespace-only.
func (p HookScript) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidHookScriptError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidHookScriptError.
func (e *InvalidHookScriptError) Error() string {
	return fmt.Sprintf("invalid hook script %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidHookScript for errors.Is() compatibility.
func (e *InvalidHookScriptError) Unwrap() error { return ErrInvalidHookScript }

// String returns the string representation of the VersionSpec.
func (s VersionSpec) String() string { return string(s) }

// IsValid returns whether the VersionSpec parses as a Python version.
func (s VersionSpec) IsValid() (bool, []error) {
	if _, err := types.ParsePythonVersion(string(s)); err != nil {
		return false, []error{&InvalidVersionSpecError{Value: s}}
	}
	return true, nil
}

// Version parses the spec into a PythonVersion. Callers should validate first;
// an unparseable spec returns the zero version plus the parse error.
func (s VersionSpec) Version() (types.PythonVersion, error) {
	return types.ParsePythonVersion(string(s))
}

// Error implements the error interface for InvalidVersionSpecError.
func (e *InvalidVersionSpecError) Error() string {
	return fmt.Sprintf("invalid version spec %q: must be major.minor or major.minor.micro", e.Value)
}

// Unwrap returns ErrInvalidVersionSpec for errors.Is() compatibility.
func (e *InvalidVersionSpecError) Unwrap() error { return ErrInvalidVersionSpec }

// IsValid returns whether the PythonConfig has valid fields.
// It delegates to Binary.IsValid() and MinVersion.IsValid().
func (c PythonConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Binary.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.MinVersion.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidPythonConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPythonConfigError.
func (e *InvalidPythonConfigError) Error() string {
	return fmt.Sprintf("invalid python config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidPythonConfig for errors.Is() compatibility.
func (e *InvalidPythonConfigError) Unwrap() error { return ErrInvalidPythonConfig }

// IsValid returns whether the EnvConfig has valid fields.
// It delegates to Dir.IsValid().
func (c EnvConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Dir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidEnvConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEnvConfigError.
func (e *InvalidEnvConfigError) Error() string {
	return fmt.Sprintf("invalid env config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidEnvConfig for errors.Is() compatibility.
func (e *InvalidEnvConfigError) Unwrap() error { return ErrInvalidEnvConfig }

// IsValid returns whether the ManifestConfig has valid fields.
// It delegates to Path.IsValid().
func (c ManifestConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Path.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidManifestConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidManifestConfigError.
func (e *InvalidManifestConfigError) Error() string {
	return fmt.Sprintf("invalid manifest config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidManifestConfig for errors.Is() compatibility.
func (e *InvalidManifestConfigError) Unwrap() error { return ErrInvalidManifestConfig }

// IsValid returns whether the ServerConfig has valid fields.
// It delegates to Entrypoint.IsValid(), Host.IsValid(), Port.Validate(),
// and DataDir.IsValid().
func (c ServerConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Entrypoint.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Host.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if err := c.Port.Validate(); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.DataDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidServerConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidServerConfigError.
func (e *InvalidServerConfigError) Error() string {
	return fmt.Sprintf("invalid server config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidServerConfig for errors.Is() compatibility.
func (e *InvalidServerConfigError) Unwrap() error { return ErrInvalidServerConfig }

// IsValid returns whether the PipConfig has valid fields.
// It delegates to IndexURL.IsValid().
func (c PipConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.IndexURL.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidPipConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPipConfigError.
func (e *InvalidPipConfigError) Error() string {
	return fmt.Sprintf("invalid pip config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidPipConfig for errors.Is() compatibility.
func (e *InvalidPipConfigError) Unwrap() error { return ErrInvalidPipConfig }

// IsValid returns whether the HooksConfig has valid fields.
// It delegates to PreProvision.IsValid() and PostProvision.IsValid().
func (c HooksConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.PreProvision.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.PostProvision.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidHooksConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidHooksConfigError.
func (e *InvalidHooksConfigError) Error() string {
	return fmt.Sprintf("invalid hooks config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidHooksConfig for errors.Is() compatibility.
func (e *InvalidHooksConfigError) Unwrap() error { return ErrInvalidHooksConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to each sub-config's IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Python.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Env.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Manifest.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Server.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Pip.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Hooks.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Python: PythonConfig{
			Binary:     "", // Will look up python3 on PATH if empty
			MinVersion: "3.10",
		},
		Env: EnvConfig{
			Dir: "venv",
		},
		Manifest: ManifestConfig{
			Path: "", // Will detect requirements.txt then pyproject.toml if empty
		},
		Server: ServerConfig{
			Entrypoint: "inventory_server.py",
			Host:       "0.0.0.0",
			Port:       8080,
			DataDir:    ".",
		},
		Pip: PipConfig{
			IndexURL: "",
		},
		Hooks: HooksConfig{
			PreProvision:  "",
			PostProvision: "",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
