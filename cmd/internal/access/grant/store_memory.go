package grant

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory, for dev mode and tests.
//
// A single mutex guards every operation, which trivially satisfies the
// per-user serialization Create requires and the single-record atomicity
// ExtendLive and ReapExpired require.
type MemoryStore struct {
	mu     sync.Mutex
	grants map[string]*Grant
	order  []string // insertion order for stable listing
}

// NewMemoryStore creates an empty in-memory grant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]*Grant)}
}

// Create inserts g unless the owner is at the live-grant cap.
func (s *MemoryStore) Create(_ context.Context, g Grant, maxLive int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := 0
	for _, id := range s.order {
		if existing := s.grants[id]; existing.UserID == g.UserID && existing.Live(g.CreatedAt) {
			live++
		}
	}
	if live >= maxLive {
		return ErrQuotaExceeded
	}

	stored := g
	stored.Permissions = append([]string(nil), g.Permissions...)
	s.grants[g.ID] = &stored
	s.order = append(s.order, g.ID)
	return nil
}

// GetLive returns the live grant with the given id, or ErrNotFound.
func (s *MemoryStore) GetLive(_ context.Context, now time.Time, id string) (Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[id]
	if !ok || !g.Live(now) {
		return Grant{}, ErrNotFound
	}
	return *g, nil
}

// ListLive returns the user's live grants in creation order.
func (s *MemoryStore) ListLive(_ context.Context, now time.Time, userID string) ([]Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Grant
	for _, id := range s.order {
		if g := s.grants[id]; g.UserID == userID && g.Live(now) {
			out = append(out, *g)
		}
	}
	return out, nil
}

// Deactivate clears the active flag (idempotent).
func (s *MemoryStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.grants[id]; ok {
		g.Active = false
	}
	return nil
}

// DeactivateAllForUser clears the active flag on all live grants of a user.
func (s *MemoryStore) DeactivateAllForUser(_ context.Context, now time.Time, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, g := range s.grants {
		if g.UserID == userID && g.Live(now) {
			g.Active = false
			n++
		}
	}
	return n, nil
}

// ExtendLive moves a live grant's expiry forward and stamps last-accessed.
func (s *MemoryStore) ExtendLive(_ context.Context, now time.Time, id string, by time.Duration) (Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[id]
	if !ok || !g.Live(now) {
		return Grant{}, ErrNotFound
	}

	g.ExpiresAt = g.ExpiresAt.Add(by)
	g.LastAccessedAt = now
	return *g, nil
}

// ReapExpired deactivates every grant whose expiry has passed.
func (s *MemoryStore) ReapExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, g := range s.grants {
		if g.Active && !g.ExpiresAt.After(now) {
			g.Active = false
			n++
		}
	}
	return n, nil
}

// Get returns any grant by id, live or not (test helper).
func (s *MemoryStore) Get(id string) (Grant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[id]
	if !ok {
		return Grant{}, false
	}
	return *g, true
}
