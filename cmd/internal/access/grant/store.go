package grant

import (
	"context"
	"time"
)

// Store abstracts persistence for grant state.
//
// Implementations must serialize the live-count check and insert inside
// Create per user id, and must make ExtendLive and ReapExpired atomic
// single-record read-modify-writes, so a concurrent extend and sweep
// converge without either retrying the other.
type Store interface {
	// Create inserts g if the owner currently holds fewer than maxLive live
	// grants; otherwise it returns ErrQuotaExceeded and inserts nothing.
	// "Live at g.CreatedAt" is the point-in-time definition of the count.
	Create(ctx context.Context, g Grant, maxLive int) error

	// GetLive returns the live grant with the given id, or ErrNotFound.
	GetLive(ctx context.Context, now time.Time, id string) (Grant, error)

	// ListLive returns the user's live grants in creation order.
	ListLive(ctx context.Context, now time.Time, userID string) ([]Grant, error)

	// Deactivate clears the active flag. Idempotent; racing the reaper is
	// safe because both converge on the same terminal value.
	Deactivate(ctx context.Context, id string) error

	// DeactivateAllForUser clears the active flag on all of the user's live
	// grants and returns how many changed.
	DeactivateAllForUser(ctx context.Context, now time.Time, userID string) (int, error)

	// ExtendLive moves the grant's expiry forward by the given amount and
	// stamps last-accessed, atomically, only if the grant is still live at
	// now. Returns the updated grant, or ErrNotFound.
	ExtendLive(ctx context.Context, now time.Time, id string, by time.Duration) (Grant, error)

	// ReapExpired deactivates every grant whose expiry has passed and
	// returns how many changed. Idempotent.
	ReapExpired(ctx context.Context, now time.Time) (int, error)
}
