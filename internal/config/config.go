// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/stockroom/stockroom/internal/issue"
	"github.com/stockroom/stockroom/pkg/platform"
	"github.com/stockroom/stockroom/pkg/types"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "stockroom"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the stockroom configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns the path the config file is written to by
// 'stockroom config init', whether or not the file exists yet.
func DefaultConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("python.binary", defaults.Python.Binary)
	v.SetDefault("python.min_version", defaults.Python.MinVersion)
	v.SetDefault("env.dir", defaults.Env.Dir)
	v.SetDefault("manifest.path", defaults.Manifest.Path)
	v.SetDefault("server.entrypoint", defaults.Server.Entrypoint)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.data_dir", defaults.Server.DataDir)
	v.SetDefault("pip.index_url", defaults.Pip.IndexURL)
	v.SetDefault("hooks.pre_provision", defaults.Hooks.PreProvision)
	v.SetDefault("hooks.post_provision", defaults.Hooks.PostProvision)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	resolvedPath := ""

	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		customPath := string(opts.ConfigFilePath)
		if !fileExists(customPath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(customPath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'stockroom config show' to see default configuration").
				Wrap(fmt.Errorf("config file not found: %s", customPath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, customPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(customPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'stockroom config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
		resolvedPath = customPath
	} else {
		// Get config directory
		cfgDir, err := configDirWithOverride(string(opts.ConfigDirPath))
		if err != nil {
			return nil, "", err
		}

		// Try to load CUE config file
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(cuePath).
					WithSuggestion("Check that the file contains valid CUE syntax").
					WithSuggestion("Verify the configuration values match the expected schema").
					WithSuggestion("See 'stockroom config --help' for configuration options").
					Wrap(err).
					BuildError()
			}
			resolvedPath = cuePath
		} else {
			// Also check current directory
			localCuePath := ConfigFileName + "." + ConfigFileExt
			if fileExists(localCuePath) {
				if err := loadCUEIntoViper(v, localCuePath); err != nil {
					return nil, "", issue.NewErrorContext().
						WithOperation("load configuration").
						WithResource(localCuePath).
						WithSuggestion("Check that the file contains valid CUE syntax").
						WithSuggestion("Verify the configuration values match the expected schema").
						WithSuggestion("See 'stockroom config --help' for configuration options").
						Wrap(err).
						BuildError()
				}
				resolvedPath = localCuePath
			}
			// If no config file found, use defaults (no error)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate the version spec, which CUE constrains only syntactically:
	// the value also has to parse into an ordered version for the floor check.
	if err := validateVersionSpec("python.min_version", cfg.Python.MinVersion); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion(`Use a version like "3.10" or "3.10.2"`).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Uses Concrete(false) because config fields are optional, and decodes to
// map[string]any (not a struct) so the result can merge into Viper's config
// map on top of the defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	// Read CUE file
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkFileSize(data, DefaultMaxFileSize, path); err != nil {
		return err
	}

	// Parse with CUE
	ctx := cuecontext.New()

	// Compile the schema
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	// Compile the user's config file
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Unify with schema to validate against #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	// Decode to Go map
	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// validateVersionSpec checks that the spec parses into an ordered version.
// The fieldName parameter identifies the config key in error messages.
func validateVersionSpec(fieldName string, spec VersionSpec) error {
	if _, err := types.ParsePythonVersion(string(spec)); err != nil {
		return fmt.Errorf("%s: %w", fieldName, err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig creates a default config file if it doesn't exist
func CreateDefaultConfig() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		return nil // File exists
	}

	defaults := DefaultConfig()
	cueContent := GenerateCUE(defaults)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	cueContent := GenerateCUE(cfg)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Stockroom Configuration File\n")
	sb.WriteString("// See https://github.com/stockroom/stockroom for documentation.\n\n")

	// Interpreter
	sb.WriteString("python: {\n")
	if cfg.Python.Binary != "" {
		sb.WriteString(fmt.Sprintf("\tbinary: %q\n", cfg.Python.Binary))
	}
	sb.WriteString(fmt.Sprintf("\tmin_version: %q\n", cfg.Python.MinVersion))
	sb.WriteString("}\n")

	// Environment
	sb.WriteString("\nenv: {\n")
	sb.WriteString(fmt.Sprintf("\tdir: %q\n", cfg.Env.Dir))
	sb.WriteString("}\n")

	// Manifest
	if cfg.Manifest.Path != "" {
		sb.WriteString("\nmanifest: {\n")
		sb.WriteString(fmt.Sprintf("\tpath: %q\n", cfg.Manifest.Path))
		sb.WriteString("}\n")
	}

	// Server
	sb.WriteString("\nserver: {\n")
	sb.WriteString(fmt.Sprintf("\tentrypoint: %q\n", cfg.Server.Entrypoint))
	sb.WriteString(fmt.Sprintf("\thost: %q\n", cfg.Server.Host))
	sb.WriteString(fmt.Sprintf("\tport: %d\n", cfg.Server.Port))
	if cfg.Server.DataDir != "" {
		sb.WriteString(fmt.Sprintf("\tdata_dir: %q\n", cfg.Server.DataDir))
	}
	sb.WriteString("}\n")

	// Pip
	if cfg.Pip.IndexURL != "" {
		sb.WriteString("\npip: {\n")
		sb.WriteString(fmt.Sprintf("\tindex_url: %q\n", cfg.Pip.IndexURL))
		sb.WriteString("}\n")
	}

	// Hooks
	if cfg.Hooks.PreProvision != "" || cfg.Hooks.PostProvision != "" {
		sb.WriteString("\nhooks: {\n")
		if cfg.Hooks.PreProvision != "" {
			sb.WriteString(fmt.Sprintf("\tpre_provision: %q\n", cfg.Hooks.PreProvision))
		}
		if cfg.Hooks.PostProvision != "" {
			sb.WriteString(fmt.Sprintf("\tpost_provision: %q\n", cfg.Hooks.PostProvision))
		}
		sb.WriteString("}\n")
	}

	// UI config
	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	return sb.String()
}
