package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seedvault/seedvault/internal/events"
	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/transport"
)

// Service is the session collaborator. The vault manager consumes it only
// to learn the current user; login itself is an opaque ceremony as far as
// the vault core is concerned.
type Service struct {
	transport transport.Transport
	logger    *events.Logger

	// Token cache
	token     *models.TokenInfo
	tokenFile string
}

// NewService creates an auth service.
func NewService(transport transport.Transport, tokenFile string, logger *events.Logger) *Service {
	return &Service{
		transport: transport,
		tokenFile: tokenFile,
		logger:    logger.WithField("service", "auth"),
	}
}

// Login authenticates and persists the session token.
func (s *Service) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password required", models.ErrInvalidCredentials)
	}

	s.logger.WithField("email", email).Info("Logging in")

	resp, err := s.transport.PostJSON(ctx, "/user/signin", models.AuthRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}

	token, _ := resp["token"].(string)
	if token == "" {
		return fmt.Errorf("invalid login response: missing token")
	}

	userID, _ := resp["user_id"].(string)
	if userID == "" {
		return fmt.Errorf("invalid login response: missing user_id")
	}

	expiresStr, _ := resp["expires_at"].(string)
	expiresAt, _ := time.Parse(time.RFC3339, expiresStr)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	s.token = &models.TokenInfo{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    userID,
		Email:     email,
	}

	s.transport.SetToken(token)

	if err := s.saveToken(); err != nil {
		s.logger.WithError(err).Warn("Failed to save token")
	}

	s.logger.Info("Login successful")
	return nil
}

// Logout clears the session.
func (s *Service) Logout(ctx context.Context) error {
	s.logger.Info("Logging out")

	if s.token != nil && !s.token.IsExpired() {
		if _, err := s.transport.PostJSON(ctx, "/user/signout", nil); err != nil {
			s.logger.WithError(err).Warn("Server signout failed")
		}
	}

	s.token = nil
	s.transport.SetToken("")

	if s.tokenFile != "" {
		if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove token file: %w", err)
		}
	}

	return nil
}

// CurrentUser returns the authenticated user, or ErrNotAuthenticated when
// there is no live session.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	if s.token == nil {
		if err := s.loadToken(); err != nil {
			return nil, models.ErrNotAuthenticated
		}
	}

	if s.token == nil || s.token.IsExpired() {
		return nil, models.ErrNotAuthenticated
	}

	return &models.User{
		ID:    s.token.UserID,
		Email: s.token.Email,
	}, nil
}

// loadToken restores a persisted session.
func (s *Service) loadToken() error {
	if s.tokenFile == "" {
		return fmt.Errorf("no token file configured")
	}

	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}

	var token models.TokenInfo
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("parse token file: %w", err)
	}

	if token.IsExpired() {
		return fmt.Errorf("stored token expired")
	}

	s.token = &token
	s.transport.SetToken(token.Token)
	return nil
}

// saveToken persists the session with owner-only permissions.
func (s *Service) saveToken() error {
	if s.tokenFile == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.tokenFile), 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	data, err := json.MarshalIndent(s.token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := os.WriteFile(s.tokenFile, data, 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	return nil
}
