package grant

import "time"

// State is the logical lifecycle state of a grant. The stored representation
// is an active flag plus an expiry timestamp; StateAt is the single place
// that folds the two into one value so call sites cannot disagree about
// impossible combinations.
type State string

const (
	// StateActive: active flag set and expiry in the future.
	StateActive State = "active"
	// StateExpired: active flag still set but expiry passed; functionally
	// dead, waiting for the reaper.
	StateExpired State = "expired"
	// StateInactive: terminal. Explicitly deleted or reaped.
	StateInactive State = "inactive"
)

// Permissions every grant carries. The set is fixed; scoping beyond
// read/write is the downstream store's concern.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

// DefaultPermissions returns the fixed permission set for new grants.
func DefaultPermissions() []string {
	return []string{PermissionRead, PermissionWrite}
}

// Grant is one scoped access grant.
type Grant struct {
	ID             string // ULID: globally unique, time-sortable
	UserID         string
	ClientID       string
	IPAddress      string
	UserAgent      string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	Active         bool
	Permissions    []string
}

// Live reports whether the grant authorizes access at now.
func (g Grant) Live(now time.Time) bool {
	return g.Active && g.ExpiresAt.After(now)
}

// StateAt returns the logical state of the grant at now.
func (g Grant) StateAt(now time.Time) State {
	switch {
	case !g.Active:
		return StateInactive
	case !g.ExpiresAt.After(now):
		return StateExpired
	default:
		return StateActive
	}
}

// EndpointCredentials is the access material handed to the caller on create
// and extend. The password is never persisted with the grant.
type EndpointCredentials struct {
	Username string
	Password string
}
