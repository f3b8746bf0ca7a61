package credential

import "errors"

var (
	// ErrForbidden is returned when the user has no ACCEPTED application.
	ErrForbidden = errors.New("contributor not accepted")

	// ErrNotFound is returned when no secret record exists for a client id.
	ErrNotFound = errors.New("client secret not found")

	// ErrSecretNotExpired is returned when rotation is requested while the
	// current secret is still valid. Rotation is blocked, not extended.
	ErrSecretNotExpired = errors.New("client secret not yet expired")

	// ErrConfig is returned for invalid rotator configuration.
	ErrConfig = errors.New("invalid credential config")
)
