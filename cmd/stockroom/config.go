// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/config"
	"github.com/stockroom/stockroom/internal/issue"
	"github.com/stockroom/stockroom/pkg/types"
)

// newConfigCommand creates the `stockroom config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stockroom configuration",
		Long: `Manage stockroom configuration.

Configuration is stored in:
  - Linux: ~/.config/stockroom/config.cue
  - macOS: ~/Library/Application Support/stockroom/config.cue
  - Windows: %APPDATA%\stockroom\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, rootFlags.configPath)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), app, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), loadOptionsFor(rootFlags.configPath))
			if err != nil {
				return err
			}

			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

// loadOptionsFor honors the root --config flag; an empty path means the
// standard config directory.
func loadOptionsFor(configPath string) config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: types.FilesystemPath(configPath)}
}

func showConfig(ctx context.Context, app *App, configPath string) error {
	cfg, err := app.Config.Load(ctx, loadOptionsFor(configPath))
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	headerStyle := TitleStyle
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	// orDefault marks unset optional values so they read as intentional.
	orDefault := func(s string) string {
		if s == "" {
			return SubtitleStyle.Render("(default)")
		}
		return valueStyle.Render(s)
	}

	fmt.Println(headerStyle.Render("Current Configuration"))
	fmt.Println()

	if configPath != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), configPath)
	} else if cfgPath, pathErr := config.DefaultConfigPath(); pathErr == nil && fileExistsCheck(cfgPath) {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s:\n", keyStyle.Render("python"))
	fmt.Printf("  binary: %s\n", orDefault(cfg.Python.Binary.String()))
	fmt.Printf("  min_version: %s\n", valueStyle.Render(cfg.Python.MinVersion.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("env"))
	fmt.Printf("  dir: %s\n", valueStyle.Render(cfg.Env.Dir.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("manifest"))
	fmt.Printf("  path: %s\n", orDefault(cfg.Manifest.Path.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("server"))
	fmt.Printf("  entrypoint: %s\n", valueStyle.Render(cfg.Server.Entrypoint.String()))
	fmt.Printf("  host: %s\n", valueStyle.Render(cfg.Server.Host.String()))
	fmt.Printf("  port: %s\n", valueStyle.Render(cfg.Server.Port.String()))
	fmt.Printf("  data_dir: %s\n", orDefault(cfg.Server.DataDir.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("pip"))
	fmt.Printf("  index_url: %s\n", orDefault(cfg.Pip.IndexURL.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("hooks"))
	fmt.Printf("  pre_provision: %s\n", orDefault(cfg.Hooks.PreProvision.String()))
	fmt.Printf("  post_provision: %s\n", orDefault(cfg.Hooks.PostProvision.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))

	return nil
}

func initConfig() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err = config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s/config.cue\n", SuccessStyle.Render("✓"), cfgDir)
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s/config.cue\n", cfgDir)
	return nil
}

func setConfigValue(ctx context.Context, app *App, key, value string) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{})
	if err != nil {
		return err
	}

	// Each typed field validates itself so a bad value never reaches the
	// config file.
	validate := func(ok bool, errs []error) error {
		if ok {
			return nil
		}
		return fmt.Errorf("invalid %s: %w", key, errors.Join(errs...))
	}

	switch key {
	case "python.binary":
		v := config.BinaryFilePath(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Python.Binary = v

	case "python.min_version":
		v := config.VersionSpec(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Python.MinVersion = v

	case "env.dir":
		v := config.EnvDirPath(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Env.Dir = v

	case "manifest.path":
		v := config.ManifestPath(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Manifest.Path = v

	case "server.entrypoint":
		v := config.EntrypointPath(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Server.Entrypoint = v

	case "server.host":
		v := config.HostAddr(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Server.Host = v

	case "server.port":
		n, convErr := strconv.Atoi(value)
		if convErr != nil {
			return fmt.Errorf("invalid server.port: %q is not a number", value)
		}
		v := types.ListenPort(n)
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid server.port: %w", err)
		}
		cfg.Server.Port = v

	case "server.data_dir":
		v := config.DataDirPath(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Server.DataDir = v

	case "pip.index_url":
		v := config.IndexURL(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Pip.IndexURL = v

	case "hooks.pre_provision":
		v := config.HookScript(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Hooks.PreProvision = v

	case "hooks.post_provision":
		v := config.HookScript(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.Hooks.PostProvision = v

	case "ui.color_scheme":
		v := config.ColorScheme(value)
		if err := validate(v.IsValid()); err != nil {
			return err
		}
		cfg.UI.ColorScheme = v

	case "ui.verbose":
		cfg.UI.Verbose = value == "true" || value == "1"

	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: python.binary, python.min_version, env.dir, manifest.path, server.entrypoint, server.host, server.port, server.data_dir, pip.index_url, hooks.pre_provision, hooks.post_provision, ui.color_scheme, ui.verbose", key)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
