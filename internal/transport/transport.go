package transport

import (
	"context"
	"fmt"

	"github.com/seedvault/seedvault/internal/config"
	"github.com/seedvault/seedvault/internal/events"
	"github.com/seedvault/seedvault/internal/models"
)

// Transport abstracts backend communication.
type Transport interface {
	// PostJSON sends a JSON POST request and returns the decoded response.
	PostJSON(ctx context.Context, path string, payload interface{}) (map[string]interface{}, error)

	// StreamEvents subscribes to change-feed notifications for a vault.
	// The channel closes when the stream ends or ctx is cancelled.
	StreamEvents(ctx context.Context, vaultID string) (<-chan models.VaultEvent, error)

	// Authentication
	SetToken(token string)
	GetToken() string

	// Lifecycle
	Close() error
}

// DefaultTransport implements Transport over HTTP and WebSocket.
type DefaultTransport struct {
	httpClient *HTTPClient
	wsClient   *WSClient
	logger     *events.Logger
}

// NewTransport creates a transport instance.
func NewTransport(cfg *config.APIConfig, logger *events.Logger) Transport {
	return &DefaultTransport{
		httpClient: NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// PostJSON forwards to the HTTP client.
func (t *DefaultTransport) PostJSON(ctx context.Context, path string, payload interface{}) (map[string]interface{}, error) {
	return t.httpClient.PostJSON(ctx, path, payload)
}

// StreamEvents opens a WebSocket change feed for the vault. A previously
// opened stream is closed first; the transport carries at most one.
func (t *DefaultTransport) StreamEvents(ctx context.Context, vaultID string) (<-chan models.VaultEvent, error) {
	if t.wsClient != nil {
		_ = t.wsClient.Close()
	}
	t.wsClient = NewWSClient(t.httpClient.baseURL, t.httpClient.token, t.logger)

	if err := t.wsClient.Connect(ctx, vaultID); err != nil {
		return nil, fmt.Errorf("connect change feed: %w", err)
	}

	go func() {
		for err := range t.wsClient.Errors() {
			t.logger.WithError(err).Error("Change feed error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = t.wsClient.Close()
	}()

	return t.wsClient.Events(), nil
}

// SetToken sets the auth token.
func (t *DefaultTransport) SetToken(token string) {
	t.httpClient.SetToken(token)
}

// GetToken returns the auth token.
func (t *DefaultTransport) GetToken() string {
	return t.httpClient.GetToken()
}

// Close shuts down the transport.
func (t *DefaultTransport) Close() error {
	if t.wsClient != nil {
		return t.wsClient.Close()
	}
	return nil
}
