// Package folders is the folder-metadata collaborator. The vault core only
// ever reads folder names from it to denormalize them into items at write
// time; folder CRUD itself lives on the backend.
package folders

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/seedvault/seedvault/internal/events"
	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/transport"
)

// Service lists folders and resolves folder names, with a small cache.
type Service struct {
	transport transport.Transport
	logger    *events.Logger

	mu    sync.Mutex
	cache map[string]models.Folder
}

// NewService creates a folders service.
func NewService(transport transport.Transport, logger *events.Logger) *Service {
	return &Service{
		transport: transport,
		logger:    logger.WithField("service", "folders"),
		cache:     make(map[string]models.Folder),
	}
}

// ListFolders fetches the user's folders and refreshes the cache.
func (s *Service) ListFolders(ctx context.Context) ([]models.Folder, error) {
	resp, err := s.transport.PostJSON(ctx, "/folders/list", nil)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	raw, ok := resp["folders"]
	if !ok || raw == nil {
		return nil, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode folders payload: %w", err)
	}

	var list []models.Folder
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode folders: %w", err)
	}

	s.mu.Lock()
	for _, f := range list {
		s.cache[f.ID] = f
	}
	s.mu.Unlock()

	s.logger.WithField("count", len(list)).Debug("Fetched folders")
	return list, nil
}

// FolderName resolves a folder id to its current name, fetching the list
// on a cache miss. An unknown id resolves to the empty string.
func (s *Service) FolderName(ctx context.Context, folderID string) (string, error) {
	s.mu.Lock()
	f, ok := s.cache[folderID]
	s.mu.Unlock()
	if ok {
		return f.Name, nil
	}

	if _, err := s.ListFolders(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	f, ok = s.cache[folderID]
	s.mu.Unlock()
	if !ok {
		return "", nil
	}
	return f.Name, nil
}
