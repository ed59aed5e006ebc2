// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/inventory"
	"github.com/stockroom/stockroom/internal/issue"
	"github.com/stockroom/stockroom/internal/mcpserver"
	"github.com/stockroom/stockroom/internal/watch"
)

// serveParams holds the dependencies and resolved flag values for the serve
// command. Flag values carry a *Set marker so config values only apply when
// the flag was left untouched.
type serveParams struct {
	stdout io.Writer
	stderr io.Writer
	app    *App

	configPath string
	verbose    bool

	host       string
	hostSet    bool
	port       int
	portSet    bool
	dataDir    string
	dataDirSet bool
	stdio      bool
	watchData  bool
}

// newServeCommand creates the `stockroom serve` command, which runs the
// built-in Go port of the inventory MCP server. Unlike `run`, it needs no
// Python environment.
func newServeCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in inventory MCP server",
		Long: `Serve the built-in Go implementation of the inventory MCP server.

The built-in server exposes the same tools as the Python entrypoint
(get_all_products, get_sales_data, get_season) but reads products.csv and
sales_data.csv directly, so no environment provisioning is required.

By default it listens on HTTP with the MCP SSE transport at /sse, a
human-readable homepage at / and a health probe at /health. With --stdio
it speaks MCP over stdin/stdout instead, for direct use from MCP clients
such as Claude Desktop.`,
		Example: `  # Serve over HTTP on the configured host and port
  stockroom serve

  # Serve on a specific port with live CSV reloading
  stockroom serve --port 9090 --watch

  # Speak MCP over stdio (for MCP client configs)
  stockroom serve --stdio`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			stdio, _ := cmd.Flags().GetBool("stdio")
			watchData, _ := cmd.Flags().GetBool("watch")

			p := serveParams{
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
				app:        app,
				configPath: rootFlags.configPath,
				verbose:    rootFlags.verbose,
				host:       host,
				hostSet:    cmd.Flags().Changed("host"),
				port:       port,
				portSet:    cmd.Flags().Changed("port"),
				dataDir:    dataDir,
				dataDirSet: cmd.Flags().Changed("data-dir"),
				stdio:      stdio,
				watchData:  watchData,
			}
			return runServe(cmd.Context(), p)
		},
	}

	cmd.Flags().String("host", mcpserver.DefaultHost, "address to bind the HTTP server to")
	cmd.Flags().Int("port", mcpserver.DefaultPort, "port to listen on")
	cmd.Flags().String("data-dir", "", "directory containing products.csv and sales_data.csv (default from config)")
	cmd.Flags().Bool("stdio", false, "speak MCP over stdin/stdout instead of HTTP")
	cmd.Flags().Bool("watch", false, "reload the CSV tables when they change on disk")

	return cmd
}

// runServe resolves the listen address and data directory, loads the CSV
// tables and runs the MCP server until the context is cancelled.
func runServe(ctx context.Context, p serveParams) error {
	appCfg, diags := loadConfigWithFallback(ctx, p.app.Config, p.configPath)
	p.app.Diagnostics.Render(ctx, diags, p.stderr)

	host := appCfg.Server.Host.String()
	if p.hostSet || host == "" {
		host = p.host
	}
	port := int(appCfg.Server.Port)
	if p.portSet || port == 0 {
		port = p.port
	}
	dataDir := appCfg.Server.DataDir.String()
	if p.dataDirSet || dataDir == "" {
		dataDir = p.dataDir
	}
	if dataDir == "" {
		dataDir = "."
	}

	logger := log.NewWithOptions(p.stderr, log.Options{Prefix: "serve"})
	if p.verbose || appCfg.UI.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	store := inventory.NewStore(dataDir, inventory.WithLogger(logger))
	store.Load()
	reportMissingData(p.stderr, dataDir)

	server := mcpserver.New(store,
		mcpserver.WithVersion(Version),
		mcpserver.WithLogger(logger),
	)

	if p.watchData {
		stop, err := startDataWatcher(ctx, store, dataDir, logger, p.stderr)
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		defer stop()
	}

	if p.stdio {
		if err := server.RunStdio(ctx); err != nil && ctx.Err() == nil {
			return &ExitError{Code: 1, Err: err}
		}
		return nil
	}

	httpSrv := mcpserver.NewHTTP(server, mcpserver.HTTPConfig{Host: host, Port: port})
	if err := httpSrv.Start(ctx); err != nil {
		renderServiceError(p.stderr, newServiceError(err,
			classifyListenError(err, 0),
			fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, p.verbose)),
		))
		return &ExitError{Code: 1, Err: err}
	}

	products, sales := store.Counts()
	fmt.Fprintf(p.stdout, "%s %s listening at %s\n",
		SuccessStyle.Render("✓"), mcpserver.ServerName, httpSrv.URL())
	fmt.Fprintf(p.stdout, "  SSE endpoint:  %s/sse\n", httpSrv.URL())
	fmt.Fprintf(p.stdout, "  Health probe:  %s/health\n", httpSrv.URL())
	fmt.Fprintf(p.stdout, "  Inventory:     %d products, %d sales records\n", products, sales)

	select {
	case <-ctx.Done():
	case err := <-httpSrv.Err():
		if err != nil {
			// Shutdown still runs so the listener is released.
			_ = httpSrv.Stop(context.Background())
			return &ExitError{Code: 1, Err: err}
		}
	}

	// The run context is already cancelled here; graceful shutdown gets a
	// fresh one bounded by the server's own shutdown timeout.
	if err := httpSrv.Stop(context.Background()); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}

// reportMissingData warns when the data directory lacks one of the CSV
// tables. The server still starts; its tools just return empty lists.
func reportMissingData(stderr io.Writer, dataDir string) {
	var missing []string
	for _, name := range []string{inventory.ProductsFile, inventory.SalesFile} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return
	}

	fmt.Fprintf(stderr, "%s %s not found in %s; the server starts with empty tables\n",
		WarningStyle.Render("warning:"), strings.Join(missing, " and "), dataDir)
	rendered, err := issue.Get(issue.DataFileMissingId).Render("dark")
	if err != nil {
		slog.Warn("failed to render issue guidance", "error", err)
		return
	}
	fmt.Fprint(stderr, rendered)
}

// startDataWatcher reloads the store whenever a CSV file under dataDir
// changes. The returned stop function blocks until the watcher goroutine
// has exited.
func startDataWatcher(ctx context.Context, store *inventory.Store, dataDir string, logger *log.Logger, stderr io.Writer) (stop func(), err error) {
	w, err := watch.New(watch.Config{
		Patterns: []string{"**/*.csv"},
		BaseDir:  dataDir,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("data files changed, reloading tables", "count", len(changed))
			store.Load()
			return nil
		},
		Stderr: stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch data directory: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(watchCtx); err != nil && watchCtx.Err() == nil {
			logger.Error("data watcher stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}
