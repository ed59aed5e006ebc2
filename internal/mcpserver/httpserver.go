// SPDX-License-Identifier: MPL-2.0

package mcpserver

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stockroom/stockroom/internal/core/serverbase"
)

//go:embed homepage.html
var homepageHTML []byte

const (
	// DefaultHost is the default bind address.
	DefaultHost = "0.0.0.0"
	// DefaultPort is the default listen port.
	DefaultPort = 8080

	defaultStartupTimeout  = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type (
	// HTTPConfig holds immutable configuration for the HTTP transport.
	HTTPConfig struct {
		// Host is the address to bind to (default 0.0.0.0).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// StartupTimeout bounds the wait for the server to become ready.
		StartupTimeout time.Duration
		// ShutdownTimeout bounds graceful shutdown.
		ShutdownTimeout time.Duration
	}

	// HTTPServer serves MCP over HTTP: the homepage at /, the SSE transport
	// at /sse, and a health probe at /health.
	//
	// An HTTPServer is single-use: once stopped or failed, create a new one.
	HTTPServer struct {
		*serverbase.Base

		cfg    HTTPConfig
		server *Server

		httpServer *http.Server
		listener   net.Listener
		addr       string
	}
)

// NewHTTP creates the HTTP transport for server. The server does not listen
// until Start is called.
func NewHTTP(server *Server, cfg HTTPConfig) *HTTPServer {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	return &HTTPServer{
		Base:   serverbase.NewBase(),
		cfg:    cfg,
		server: server,
	}
}

// Start binds the listener and begins serving. It returns once the server
// is ready to accept connections.
func (s *HTTPServer) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		err = fmt.Errorf("failed to listen on %s: %w", addr, err)
		s.TransitionToFailed(err)
		return err
	}
	s.listener = listener
	s.addr = listener.Addr().String()

	// No write timeout: the SSE stream stays open for the life of the client.
	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.AddGoroutine()
	go s.serve()

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	select {
	case <-s.StartedChannel():
		return nil
	case <-startupCtx.Done():
		err := fmt.Errorf("startup timeout: %w", startupCtx.Err())
		s.TransitionToFailed(err)
		_ = listener.Close()
		return err
	}
}

// Stop gracefully shuts the server down, waiting up to ShutdownTimeout for
// in-flight requests before force-closing. Safe to call more than once.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if !s.TransitionToStopping() {
		s.WaitForShutdown()
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		_ = s.httpServer.Close()
	}

	s.WaitForShutdown()
	s.TransitionToStopped()
	s.CloseErrChannel()

	if err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// Addr returns the bound address (host:port with the resolved port), valid
// once Start has returned.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// URL returns the base URL of the running server.
func (s *HTTPServer) URL() string {
	return "http://" + s.addr
}

func (s *HTTPServer) serve() {
	defer s.DoneGoroutine()

	s.TransitionToRunning()
	s.server.logger.Info("MCP server started successfully", "transport", "sse", "addr", s.addr)

	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.SendError(fmt.Errorf("serve error: %w", err))
	}
}

func (s *HTTPServer) routes() *http.ServeMux {
	sse := mcp.NewSSEHandler(func(*http.Request) *mcp.Server {
		return s.server.MCP()
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/sse", sse)
	mux.HandleFunc("GET /{$}", s.handleHomepage)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *HTTPServer) handleHomepage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(homepageHTML)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	products, sales := s.server.store.Counts()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"state":    s.State().String(),
		"uptime":   s.Uptime().String(),
		"products": products,
		"sales":    sales,
	})
}
