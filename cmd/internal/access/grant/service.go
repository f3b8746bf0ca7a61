package grant

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"datagate/cmd/internal/access/credential"
	"datagate/cmd/internal/contributor"
	"datagate/cmd/security/secret"

	"github.com/oklog/ulid/v2"
)

// Service implements the grant lifecycle: creation under the concurrency
// cap, listing, ownership-checked deactivation, and bounded extension.
//
// It owns every user-facing mutation of the registry. It holds no state of
// its own: quota and expiry checks always read current durable state, so a
// restart or a second instance cannot disagree with it.
type Service struct {
	cfg        Config
	store      Store
	apps       contributor.Store
	mirror     credential.Mirror
	hashParams secret.Argon2idParams

	metrics *Metrics
}

// NewService constructs a Service.
func NewService(cfg Config, store Store, apps contributor.Store, mirror credential.Mirror, metrics *Metrics) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || apps == nil || mirror == nil {
		return nil, errors.New("grant: nil dependency")
	}
	return &Service{
		cfg:        cfg,
		store:      store,
		apps:       apps,
		mirror:     mirror,
		hashParams: secret.DefaultArgon2idParams(),
		metrics:    metrics,
	}, nil
}

// Create issues a new grant for an accepted contributor.
//
// The live-grant count is checked against the cap inside the store, where
// it is serialized per user; at the cap the call fails with
// ErrQuotaExceeded and nothing is evicted. Persistence failures surface as
// ErrCreationFailed so the caller can retry. The returned password exists
// only in the response; the mirror receives its hash in the same logical
// operation.
func (s *Service) Create(ctx context.Context, now time.Time, userID, ipAddress, userAgent string) (Grant, EndpointCredentials, error) {
	app, err := s.resolveAccepted(ctx, userID)
	if err != nil {
		return Grant{}, EndpointCredentials{}, err
	}

	id, err := newGrantID(now)
	if err != nil {
		return Grant{}, EndpointCredentials{}, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	g := Grant{
		ID:             id,
		UserID:         userID,
		ClientID:       app.ClientID,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.DefaultDuration),
		LastAccessedAt: now,
		Active:         true,
		Permissions:    DefaultPermissions(),
	}

	if err := s.store.Create(ctx, g, s.cfg.MaxConcurrent); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			s.metrics.quotaDenied()
			return Grant{}, EndpointCredentials{}, ErrQuotaExceeded
		}
		return Grant{}, EndpointCredentials{}, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	creds, err := s.issueEndpointCredentials(ctx, app.ClientID)
	if err != nil {
		// The grant row exists but the downstream store never learned the
		// password, so the grant is unusable. Release the quota slot before
		// reporting the failure; best effort, the reaper is the backstop.
		_ = s.store.Deactivate(ctx, g.ID)
		return Grant{}, EndpointCredentials{}, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	s.metrics.created()
	return g, creds, nil
}

// ListActive returns the user's live grants in creation order.
func (s *Service) ListActive(ctx context.Context, now time.Time, userID string) ([]Grant, error) {
	return s.store.ListLive(ctx, now, userID)
}

// Get returns one live grant, enforcing ownership.
func (s *Service) Get(ctx context.Context, now time.Time, id, userID string) (Grant, error) {
	g, err := s.store.GetLive(ctx, now, id)
	if err != nil {
		return Grant{}, err
	}
	if g.UserID != userID {
		return Grant{}, ErrForbidden
	}
	return g, nil
}

// Delete deactivates one live grant, enforcing ownership. Deactivation is a
// soft state; the record stays for audit. A repeated delete, or a delete of
// an expired-but-unreaped grant, reports ErrNotFound.
func (s *Service) Delete(ctx context.Context, now time.Time, id, userID string) error {
	g, err := s.store.GetLive(ctx, now, id)
	if err != nil {
		return err
	}
	if g.UserID != userID {
		return ErrForbidden
	}
	return s.store.Deactivate(ctx, g.ID)
}

// DeleteAll deactivates every live grant the user holds. Best effort as a
// batch: the store applies it in one sweep rather than stopping at the
// first failing record.
func (s *Service) DeleteAll(ctx context.Context, now time.Time, userID string) (int, error) {
	return s.store.DeactivateAllForUser(ctx, now, userID)
}

// Extend moves a live grant's expiry forward by additionalHours, enforcing
// ownership and the per-call ceiling. Expiry only ever moves forward. On
// success the endpoint password is rotated and its hash pushed downstream,
// and the updated grant is returned.
//
// The ceiling applies to the requested increment, not the resulting
// remaining lifetime, so repeated calls can extend without bound.
func (s *Service) Extend(ctx context.Context, now time.Time, id, userID string, additionalHours int) (Grant, EndpointCredentials, error) {
	if additionalHours < 1 || additionalHours > s.cfg.MaxExtensionHours {
		return Grant{}, EndpointCredentials{}, ErrExtensionDenied
	}

	g, err := s.store.GetLive(ctx, now, id)
	if err != nil {
		return Grant{}, EndpointCredentials{}, err
	}
	if g.UserID != userID {
		return Grant{}, EndpointCredentials{}, ErrForbidden
	}

	updated, err := s.store.ExtendLive(ctx, now, g.ID, time.Duration(additionalHours)*time.Hour)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Reaped or deleted between lookup and update.
			return Grant{}, EndpointCredentials{}, ErrNotFound
		}
		return Grant{}, EndpointCredentials{}, fmt.Errorf("%w: %v", ErrExtensionFailed, err)
	}

	creds, err := s.issueEndpointCredentials(ctx, updated.ClientID)
	if err != nil {
		// The extension is already durable and expiry stays monotonic; only
		// the password rotation failed, so the caller must retry for fresh
		// endpoint material.
		return Grant{}, EndpointCredentials{}, fmt.Errorf("%w: %v", ErrExtensionFailed, err)
	}

	s.metrics.extended()
	return updated, creds, nil
}

func (s *Service) resolveAccepted(ctx context.Context, userID string) (contributor.Application, error) {
	app, err := s.apps.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, contributor.ErrNotFound) {
			return contributor.Application{}, ErrForbidden
		}
		return contributor.Application{}, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}
	if !app.Accepted() {
		return contributor.Application{}, ErrForbidden
	}
	return app, nil
}

// issueEndpointCredentials generates a fresh endpoint password, hashes it,
// and overwrites the downstream mirror. The plaintext is returned to the
// caller and never persisted.
func (s *Service) issueEndpointCredentials(ctx context.Context, clientID string) (EndpointCredentials, error) {
	password, err := secret.NewEndpointPassword()
	if err != nil {
		return EndpointCredentials{}, err
	}
	hash, err := secret.HashPassword(password, s.hashParams)
	if err != nil {
		return EndpointCredentials{}, err
	}

	username := EndpointUsername(clientID)
	if err := s.mirror.SetEndpointPassword(ctx, clientID, username, hash); err != nil {
		return EndpointCredentials{}, err
	}

	return EndpointCredentials{Username: username, Password: password}, nil
}

// EndpointUsername derives the downstream username for a client id.
func EndpointUsername(clientID string) string {
	return "contributor_" + clientID
}

func newGrantID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
