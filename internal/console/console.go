// SPDX-License-Identifier: MPL-2.0

package console

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/stockroom/stockroom/internal/core/serverbase"
	"github.com/stockroom/stockroom/internal/testutil"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

type (
	// StatusFunc produces the status text rendered to an authenticated
	// session. It is invoked once per session so every connection sees
	// fresh data.
	StatusFunc func(ctx context.Context) string

	// Config holds immutable configuration for the console server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// TokenTTL is how long unconsumed tokens stay valid (default: 1 hour).
		TokenTTL time.Duration
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
		// StartupTimeout is the max time to wait for the server to be ready (default: 5s).
		StartupTimeout time.Duration
		// Status renders the per-session status text.
		Status StatusFunc
	}

	// Server is the SSH status console.
	// A Server instance is single-use: once stopped or failed, create a new instance.
	Server struct {
		*serverbase.Base

		// Immutable configuration (set at creation, never modified)
		cfg Config

		// Initialized during Start() - protected by srvMu for writes
		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string // Actual bound address (including resolved port)

		// Token management
		tokens  map[TokenValue]*Token
		tokenMu sync.RWMutex

		clock  testutil.Clock
		logger *log.Logger
	}
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		TokenTTL:        time.Hour,
		ShutdownTimeout: 10 * time.Second,
		StartupTimeout:  5 * time.Second,
	}
}

// New creates a new console server instance.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config) *Server {
	return NewWithClock(cfg, testutil.RealClock{})
}

// NewWithClock creates a console server with a custom clock so tests can
// drive token expiry deterministically.
func NewWithClock(cfg Config, clock testutil.Clock) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 5 * time.Second
	}
	if cfg.Status == nil {
		cfg.Status = func(context.Context) string { return "no status renderer configured\n" }
	}

	return &Server{
		Base:   serverbase.NewBase(serverbase.WithErrorChannel(1)),
		cfg:    cfg,
		tokens: make(map[TokenValue]*Token),
		clock:  clock,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "console"}),
	}
}

// Start starts the console and blocks until either:
//   - The server is ready to accept connections (returns nil)
//   - The server fails to start (returns error)
//   - The context is cancelled (returns context error)
//   - The startup timeout is exceeded (returns error)
//
// After Start() returns nil, use Err() to monitor for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.TransitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.LastError()
	}

	s.srvMu.Lock()
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	srv, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithPasswordAuth(s.passwordHandler),
		wish.WithMiddleware(s.statusMiddleware()),
	)
	if err != nil {
		_ = listener.Close() // Best-effort cleanup on error
		s.TransitionToFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.LastError()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.AddGoroutine()
	go s.serve()

	s.AddGoroutine()
	go s.cleanupExpiredTokens()

	select {
	case <-s.StartedChannel():
		s.logger.Info("console started", "address", s.addr)
		return nil

	case err := <-s.Err():
		s.TransitionToFailed(err)
		return err

	case <-startupCtx.Done():
		s.TransitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.LastError()
	}
}

// Stop gracefully stops the console.
// It blocks until all sessions are closed or the shutdown timeout is reached.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Server) Stop() error {
	if !s.TransitionToStopping() {
		// Already stopped, stopping, created, or failed
		s.WaitForShutdown()
		return nil
	}

	return s.doStop()
}

// doStop performs the actual shutdown logic.
func (s *Server) doStop() error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.srvMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !isClosedConnError(shutdownErr) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close() //nolint:errcheck // Best-effort cleanup during shutdown
	}
	s.srvMu.Unlock()

	s.WaitForShutdown()

	s.TransitionToStopped()
	s.CloseErrChannel()
	s.logger.Info("console stopped")

	return shutdownErr
}

// serve runs the SSH server and handles errors.
func (s *Server) serve() {
	defer s.DoneGoroutine()

	// Transition: Starting -> Running (signals readiness)
	s.TransitionToRunning()

	s.srvMu.Lock()
	srv := s.srv
	listener := s.listener
	s.srvMu.Unlock()

	if srv == nil || listener == nil {
		return
	}

	err := srv.Serve(listener)
	if err != nil {
		// Ignore expected shutdown errors
		if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}
		s.SendError(fmt.Errorf("serve error: %w", err))
	}
}

// Address returns the server's bound address (host:port).
// Blocks until the server has started or failed.
// Returns empty string if server never started or failed.
func (s *Server) Address() string {
	select {
	case <-s.StartedChannel():
	default:
		ctx := s.Context()
		if ctx == nil {
			return ""
		}
		select {
		case <-s.StartedChannel():
		case <-ctx.Done():
			return ""
		}
	}

	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.addr
}

// Port returns the server's listening port.
// Blocks until the server has started or failed.
// Returns 0 if server never started or failed.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return 0 // Invalid port string
	}
	return port
}

// Host returns the server's configured host address.
func (s *Server) Host() string {
	return s.cfg.Host
}

// Wait blocks until the server stops (either gracefully or due to error).
// Returns the error if the server failed, nil otherwise.
func (s *Server) Wait() error {
	s.WaitForShutdown()

	if s.State() == serverbase.StateFailed {
		return s.LastError()
	}
	return nil
}

// statusMiddleware renders the status text and closes the session. The
// console is read-only: command execution is refused.
func (s *Server) statusMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			if len(sess.Command()) > 0 {
				_, _ = fmt.Fprintln(sess.Stderr(), "the console is read-only; commands are not accepted")
				_ = sess.Exit(1) //nolint:errcheck // Terminal operation; error non-critical
				return
			}

			status := s.cfg.Status(sess.Context())
			if _, _, isPty := sess.Pty(); isPty {
				// Raw PTYs need carriage returns or the lines staircase.
				status = strings.ReplaceAll(status, "\n", "\r\n")
			}

			_, _ = fmt.Fprint(sess, status)
			_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
		}
	}
}

// isClosedConnError checks if the error is a "use of closed network connection" error.
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}
