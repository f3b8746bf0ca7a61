package grant

import "errors"

var (
	// ErrForbidden is returned when the caller lacks an ACCEPTED application
	// or does not own the grant it is acting on.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when no live grant matches. An expired grant
	// the reaper has not visited yet is indistinguishable from a deleted one.
	ErrNotFound = errors.New("grant not found")

	// ErrQuotaExceeded is returned when creating would exceed the
	// per-contributor concurrency cap. The caller must delete a grant or
	// wait for natural expiry; nothing is evicted automatically.
	ErrQuotaExceeded = errors.New("concurrent grant limit exceeded")

	// ErrExtensionDenied is returned when the requested extension increment
	// is outside the allowed range.
	ErrExtensionDenied = errors.New("extension denied")

	// ErrCreationFailed wraps infrastructure failures during create. It is
	// retryable by the caller and never downgraded to success.
	ErrCreationFailed = errors.New("grant creation failed")

	// ErrExtensionFailed wraps infrastructure failures during extend.
	ErrExtensionFailed = errors.New("grant extension failed")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid grant config")
)
