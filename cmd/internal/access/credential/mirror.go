package credential

import "context"

// Mirror is the denormalized credential view the downstream data store
// authenticates against. The registry is not the system of record for
// endpoint passwords: only their Argon2id hashes are pushed here, in the
// same logical operation that generated them.
type Mirror interface {
	// SetSecret overwrites the client secret for a client id.
	SetSecret(ctx context.Context, clientID, secret string) error

	// SetEndpointPassword overwrites the endpoint username and password hash
	// for a client id.
	SetEndpointPassword(ctx context.Context, clientID, username, passwordHash string) error

	// Remove deletes the mirrored record for a client id. Idempotent.
	Remove(ctx context.Context, clientID string) error
}
