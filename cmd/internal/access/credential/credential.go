// Package credential issues and rotates long-lived client secrets for
// accepted contributors.
//
// A client id has at most one live secret at a time. Rotation is blocked
// while the current secret is unexpired so that overlap windows are always
// an explicit caller decision. Every successful rotation also overwrites the
// denormalized credential record the downstream data store reads, so no stale
// secret value stays readable.
package credential

import (
	"context"
	"time"
)

// ClientSecret is the rotating secret bound to a contributor's client id.
type ClientSecret struct {
	ClientID  string
	Secret    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the secret is still valid at now.
func (c ClientSecret) Live(now time.Time) bool { return c.ExpiresAt.After(now) }

// Store is the persistence boundary for client secrets, keyed by client id.
type Store interface {
	// Get returns the secret record for a client id, or ErrNotFound.
	Get(ctx context.Context, clientID string) (ClientSecret, error)

	// Put inserts or replaces the secret record for cs.ClientID.
	Put(ctx context.Context, cs ClientSecret) error

	// Delete removes the record entirely (acceptance revoked). Idempotent.
	Delete(ctx context.Context, clientID string) error
}
