package credential

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for dev mode and tests.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string]ClientSecret
}

// NewMemoryStore creates an empty in-memory secret store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]ClientSecret)}
}

// Get returns the secret record for a client id, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, clientID string) (ClientSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.secrets[clientID]
	if !ok {
		return ClientSecret{}, ErrNotFound
	}
	return cs, nil
}

// Put inserts or replaces the secret record for cs.ClientID.
func (s *MemoryStore) Put(_ context.Context, cs ClientSecret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[cs.ClientID] = cs
	return nil
}

// Delete removes the record for a client id.
func (s *MemoryStore) Delete(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, clientID)
	return nil
}

// MemoryMirror is an in-memory Mirror for dev mode and tests.
type MemoryMirror struct {
	mu      sync.Mutex
	records map[string]MirrorRecord
}

// MirrorRecord is the mirrored credential state for one client id.
type MirrorRecord struct {
	ClientSecret         string
	EndpointUsername     string
	EndpointPasswordHash string
}

// NewMemoryMirror creates an empty in-memory mirror.
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{records: make(map[string]MirrorRecord)}
}

// SetSecret overwrites the mirrored client secret.
func (m *MemoryMirror) SetSecret(_ context.Context, clientID, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.records[clientID]
	rec.ClientSecret = secret
	m.records[clientID] = rec
	return nil
}

// SetEndpointPassword overwrites the mirrored endpoint username and password hash.
func (m *MemoryMirror) SetEndpointPassword(_ context.Context, clientID, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.records[clientID]
	rec.EndpointUsername = username
	rec.EndpointPasswordHash = passwordHash
	m.records[clientID] = rec
	return nil
}

// Remove deletes the mirrored record for a client id.
func (m *MemoryMirror) Remove(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, clientID)
	return nil
}

// Record returns the current mirrored state for a client id (test helper).
func (m *MemoryMirror) Record(clientID string) (MirrorRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[clientID]
	return rec, ok
}
