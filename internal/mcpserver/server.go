// SPDX-License-Identifier: MPL-2.0

package mcpserver

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stockroom/stockroom/internal/inventory"
)

// ServerName is the implementation name advertised to MCP clients.
const ServerName = "Inventory Server"

type (
	// Server wraps an MCP server around an inventory store.
	Server struct {
		mcpServer *mcp.Server
		store     *inventory.Store
		logger    *log.Logger
		now       func() time.Time
		version   string
	}

	// Option configures a Server.
	Option func(*Server)
)

// WithVersion sets the implementation version advertised to clients.
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithNowFunc sets the clock used for seasonal lookups.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates an MCP server serving tools and resources backed by store.
func New(store *inventory.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		now:     time.Now,
		version: "dev",
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "mcp",
		}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: s.version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasResources: true,
	})

	s.registerTools()
	s.registerResources()

	return s
}

// MCP returns the underlying MCP server, for transports that need it.
func (s *Server) MCP() *mcp.Server {
	return s.mcpServer
}

// RunStdio serves MCP over stdin/stdout until the client disconnects or ctx
// is cancelled. Logs go to stderr so they cannot corrupt the protocol stream.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("MCP server started successfully", "transport", "stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
