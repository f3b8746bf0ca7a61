package contributor

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory application reader for dev mode and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	apps map[string]Application
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apps: make(map[string]Application)}
}

// Put records an application, replacing any prior one for the same user.
func (s *MemoryStore) Put(app Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.UserID] = app
}

// GetByUserID returns the application for a user, or ErrNotFound.
func (s *MemoryStore) GetByUserID(_ context.Context, userID string) (Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[userID]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}
