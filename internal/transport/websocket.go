package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seedvault/seedvault/internal/events"
	"github.com/seedvault/seedvault/internal/models"
)

// WSClient consumes the vault change feed over WebSocket.
type WSClient struct {
	url    string
	token  string
	logger *events.Logger

	// Connection state
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	// Channels
	eventCh chan models.VaultEvent
	errors  chan error
	done    chan struct{}

	// Heartbeat
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewWSClient creates a change-feed client.
func NewWSClient(wsURL, token string, logger *events.Logger) *WSClient {
	if len(wsURL) > 4 && wsURL[:4] == "http" {
		wsURL = "ws" + wsURL[4:]
	}

	return &WSClient{
		url:          wsURL + "/vault/events",
		token:        token,
		logger:       logger.WithField("component", "ws_client"),
		eventCh:      make(chan models.VaultEvent, 16),
		errors:       make(chan error, 4),
		done:         make(chan struct{}),
		pingInterval: 30 * time.Second,
		pongTimeout:  10 * time.Second,
	}
}

// Connect establishes the WebSocket connection and subscribes to the
// given vault's events.
func (c *WSClient) Connect(ctx context.Context, vaultID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected")
	}

	c.logger.WithField("url", c.url).Debug("Connecting change feed")

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.token)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, c.url, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket connect failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket connect failed: %w", err)
	}

	c.conn = conn
	c.closed = false

	subscribe := map[string]string{"action": "subscribe", "vault_id": vaultID}
	if err := conn.WriteJSON(subscribe); err != nil {
		conn.Close()
		c.conn = nil
		return fmt.Errorf("subscribe: %w", err)
	}

	go c.readLoop()
	go c.pingLoop()

	c.logger.WithField("vault_id", vaultID).Info("Change feed connected")
	return nil
}

// Events returns the event channel.
func (c *WSClient) Events() <-chan models.VaultEvent {
	return c.eventCh
}

// Errors returns the error channel.
func (c *WSClient) Errors() <-chan error {
	return c.errors
}

// Close closes the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)

	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return c.conn.Close()
	}

	return nil
}

// readLoop reads events until the connection closes. The teardown order
// matters: Close first, so done is closed and pingLoop has no live channel
// to race against, then the channels.
func (c *WSClient) readLoop() {
	defer func() {
		_ = c.Close()
		close(c.eventCh)
		close(c.errors)
	}()

	for {
		var event models.VaultEvent
		if err := c.conn.ReadJSON(&event); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()

			if !closed {
				select {
				case c.errors <- fmt.Errorf("read event: %w", err):
				default:
				}
			}
			return
		}

		if event.Type == models.EventPing {
			continue
		}

		select {
		case c.eventCh <- event:
		case <-c.done:
			return
		}
	}
}

// pingLoop keeps the connection alive.
func (c *WSClient) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()

			if conn == nil {
				return
			}

			deadline := time.Now().Add(c.pongTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// readLoop owns the error channel and may have closed it by
				// now; a failed ping only means the connection is going away,
				// which readLoop reports on its own.
				c.logger.WithError(err).Warn("Ping failed")
				return
			}
		}
	}
}
