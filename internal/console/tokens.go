// SPDX-License-Identifier: MPL-2.0

package console

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/ssh"
)

type (
	// TokenValue is the random hex secret a client presents as the SSH
	// password.
	TokenValue string

	// Token is a single-use credential for one console session.
	Token struct {
		Value     TokenValue
		CreatedAt time.Time
		ExpiresAt time.Time
		// Used marks a consumed token. Consumed tokens fail validation,
		// so a replayed secret cannot open a second session.
		Used bool
	}

	// ConnectionInfo contains what a client needs to reach the console.
	ConnectionInfo struct {
		Host     string
		Port     int
		Token    TokenValue
		User     string
		ExpireAt time.Time
	}
)

// String returns the string representation of the TokenValue.
func (t TokenValue) String() string { return string(t) }

// String renders the one-line connect instruction. The token is printed
// separately by the CLI so it never lands in shell history via copy-paste
// of the command line.
func (c *ConnectionInfo) String() string {
	return fmt.Sprintf("ssh -p %d %s@%s", c.Port, c.User, c.Host)
}

// GenerateToken mints a single-use token for one console session.
func (s *Server) GenerateToken() (*Token, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.clock.Now()
	token := &Token{
		Value:     TokenValue(hex.EncodeToString(tokenBytes)),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}

	s.tokenMu.Lock()
	s.tokens[token.Value] = token
	s.tokenMu.Unlock()

	s.logger.Debug("generated console token", "expires", token.ExpiresAt)

	return token, nil
}

// ValidateToken reports whether a token would authenticate right now.
// It does not consume the token.
func (s *Server) ValidateToken(value TokenValue) (*Token, bool) {
	s.tokenMu.RLock()
	token, exists := s.tokens[value]
	valid := exists && !token.Used && !s.clock.Now().After(token.ExpiresAt)
	s.tokenMu.RUnlock()

	if !valid {
		// Drop expired tokens on sight. Consumed ones stay until the TTL
		// cleanup so replays keep failing for the same reason.
		if exists && s.clock.Now().After(token.ExpiresAt) {
			s.RevokeToken(value)
		}
		return nil, false
	}

	return token, true
}

// ConsumeToken validates a token and burns it. Each token opens at most
// one session.
func (s *Server) ConsumeToken(value TokenValue) (*Token, bool) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	token, exists := s.tokens[value]
	if !exists || token.Used {
		return nil, false
	}
	if s.clock.Now().After(token.ExpiresAt) {
		delete(s.tokens, value)
		return nil, false
	}

	token.Used = true
	return token, true
}

// RevokeToken invalidates a token.
func (s *Server) RevokeToken(value TokenValue) {
	s.tokenMu.Lock()
	delete(s.tokens, value)
	s.tokenMu.Unlock()
}

// GetConnectionInfo mints a token and returns what a client needs to
// connect. Returns an error if the server is not running.
func (s *Server) GetConnectionInfo() (*ConnectionInfo, error) {
	if !s.IsRunning() {
		return nil, fmt.Errorf("console is not running (state: %s)", s.State())
	}

	token, err := s.GenerateToken()
	if err != nil {
		return nil, err
	}

	return &ConnectionInfo{
		Host:     s.cfg.Host,
		Port:     s.Port(),
		Token:    token.Value,
		User:     "stockroom",
		ExpireAt: token.ExpiresAt,
	}, nil
}

// cleanupExpiredTokens periodically removes expired tokens.
func (s *Server) cleanupExpiredTokens() {
	defer s.DoneGoroutine()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	ctx := s.Context()
	if ctx == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tokenMu.Lock()
			now := s.clock.Now()
			for value, token := range s.tokens {
				if now.After(token.ExpiresAt) {
					delete(s.tokens, value)
				}
			}
			s.tokenMu.Unlock()
		}
	}
}

// passwordHandler authenticates sessions against minted tokens. A
// successful attempt consumes the token.
func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	token, ok := s.ConsumeToken(TokenValue(password))
	if !ok {
		s.logger.Warn("rejected console authentication attempt", "user", ctx.User())
		return false
	}

	s.logger.Debug("console session authenticated", "expires", token.ExpiresAt)
	return true
}

// publicKeyHandler rejects all public key authentication.
// Only minted tokens open a session.
func (s *Server) publicKeyHandler(ctx ssh.Context, key ssh.PublicKey) bool {
	return false
}
