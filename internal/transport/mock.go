package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/seedvault/seedvault/internal/models"
)

// MockTransport provides a mock implementation for testing.
type MockTransport struct {
	mu sync.Mutex

	// Response configuration
	PostResponses map[string]interface{}
	Events        []models.VaultEvent

	// Error injection
	PostError   error            // applies to every path
	PostErrors  map[string]error // per-path override
	StreamError error

	// Request tracking
	PostRequests   []PostRequest
	StreamRequests []string

	// State
	token string
}

// PostRequest tracks POST requests.
type PostRequest struct {
	Path    string
	Payload interface{}
}

// NewMockTransport creates a mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		PostResponses: make(map[string]interface{}),
		PostErrors:    make(map[string]error),
	}
}

// AddResponse configures a canned response for a path.
func (m *MockTransport) AddResponse(path string, resp interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostResponses[path] = resp
}

// FailPath configures an error for a single path.
func (m *MockTransport) FailPath(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PostErrors[path] = err
}

// RequestsTo returns the recorded requests for a path.
func (m *MockTransport) RequestsTo(path string) []PostRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PostRequest
	for _, r := range m.PostRequests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// PostJSON mocks HTTP POST.
func (m *MockTransport) PostJSON(ctx context.Context, path string, payload interface{}) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PostRequests = append(m.PostRequests, PostRequest{
		Path:    path,
		Payload: payload,
	})

	if err, ok := m.PostErrors[path]; ok && err != nil {
		return nil, err
	}

	if m.PostError != nil {
		return nil, m.PostError
	}

	if resp, ok := m.PostResponses[path]; ok {
		if mapResp, ok := resp.(map[string]interface{}); ok {
			return mapResp, nil
		}

		// Convert to map if needed
		data, _ := json.Marshal(resp)
		var result map[string]interface{}
		_ = json.Unmarshal(data, &result)
		return result, nil
	}

	return nil, fmt.Errorf("no mock response for %s", path)
}

// StreamEvents mocks the change feed.
func (m *MockTransport) StreamEvents(ctx context.Context, vaultID string) (<-chan models.VaultEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StreamRequests = append(m.StreamRequests, vaultID)

	if m.StreamError != nil {
		return nil, m.StreamError
	}

	ch := make(chan models.VaultEvent, len(m.Events))
	for _, e := range m.Events {
		ch <- e
	}
	close(ch)

	return ch, nil
}

// SetToken stores the token.
func (m *MockTransport) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// GetToken returns the token.
func (m *MockTransport) GetToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Close is a no-op.
func (m *MockTransport) Close() error {
	return nil
}
