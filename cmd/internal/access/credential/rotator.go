package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datagate/cmd/internal/contributor"
	"datagate/cmd/security/secret"

	"github.com/prometheus/client_golang/prometheus"
)

// Config controls secret rotation policy.
type Config struct {
	// FirstIssueWindow is the validity window of the first-ever secret for a
	// client id. Kept short so a forgotten bootstrap secret dies quickly.
	FirstIssueWindow time.Duration

	// RotationWindow is the validity window of every subsequent secret.
	RotationWindow time.Duration
}

// DefaultConfig returns the production rotation policy: 3-day bootstrap
// window, 7-day windows thereafter.
func DefaultConfig() Config {
	return Config{
		FirstIssueWindow: 3 * 24 * time.Hour,
		RotationWindow:   7 * 24 * time.Hour,
	}
}

// Validate reports ErrConfig for unusable policy values.
func (c Config) Validate() error {
	if c.FirstIssueWindow <= 0 || c.RotationWindow <= 0 {
		return ErrConfig
	}
	if c.RotationWindow < c.FirstIssueWindow {
		return ErrConfig
	}
	return nil
}

// Issued is the result of a successful rotation. Secret is returned to the
// caller exactly once; list/info surfaces never include it.
type Issued struct {
	ClientID  string
	Secret    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SecretWindow is the validity window of a secret, without its value.
type SecretWindow struct {
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Info summarizes a contributor's credential state.
type Info struct {
	UserID   string
	ClientID string
	Status   contributor.Status
	Secret   *SecretWindow // nil when no secret has been issued
}

// Rotator issues and rotates client secrets.
type Rotator struct {
	cfg    Config
	apps   contributor.Store
	store  Store
	mirror Mirror

	rotations prometheus.Counter // optional
}

// Option configures optional Rotator dependencies.
type Option func(*Rotator)

// WithRotationCounter records successful rotations on the given counter.
func WithRotationCounter(c prometheus.Counter) Option {
	return func(r *Rotator) { r.rotations = c }
}

// NewRotator constructs a Rotator.
func NewRotator(cfg Config, apps contributor.Store, store Store, mirror Mirror, opts ...Option) (*Rotator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if apps == nil || store == nil || mirror == nil {
		return nil, errors.New("credential: nil dependency")
	}

	r := &Rotator{cfg: cfg, apps: apps, store: store, mirror: mirror}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Rotate mints a new client secret for the user's client id.
//
// The caller must hold an ACCEPTED application (ErrForbidden otherwise).
// While the current secret is still valid the call fails with
// ErrSecretNotExpired; rotation never silently extends. The first issuance
// gets the bootstrap window, later rotations the full window. The downstream
// mirror is overwritten in the same logical operation.
func (r *Rotator) Rotate(ctx context.Context, now time.Time, userID string) (Issued, error) {
	app, err := r.apps.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, contributor.ErrNotFound) {
			return Issued{}, ErrForbidden
		}
		return Issued{}, err
	}
	if !app.Accepted() {
		return Issued{}, ErrForbidden
	}

	window := r.cfg.RotationWindow
	var prior *ClientSecret
	existing, err := r.store.Get(ctx, app.ClientID)
	switch {
	case err == nil:
		if existing.Live(now) {
			return Issued{}, ErrSecretNotExpired
		}
		prior = &existing
	case errors.Is(err, ErrNotFound):
		window = r.cfg.FirstIssueWindow
	default:
		return Issued{}, err
	}

	value, err := secret.NewClientSecret()
	if err != nil {
		return Issued{}, err
	}

	cs := ClientSecret{
		ClientID:  app.ClientID,
		Secret:    value,
		CreatedAt: now,
		ExpiresAt: now.Add(window),
	}
	if err := r.store.Put(ctx, cs); err != nil {
		return Issued{}, fmt.Errorf("credential: store secret: %w", err)
	}
	if err := r.mirror.SetSecret(ctx, app.ClientID, value); err != nil {
		// The stored secret is live but the mirror never learned it, so it
		// can never be used, and leaving it in place would refuse every
		// retry until the window expires. Roll the store back to its prior
		// state so the next rotation attempt starts clean.
		if prior != nil {
			_ = r.store.Put(ctx, *prior)
		} else {
			_ = r.store.Delete(ctx, app.ClientID)
		}
		return Issued{}, fmt.Errorf("credential: mirror secret: %w", err)
	}

	if r.rotations != nil {
		r.rotations.Inc()
	}

	return Issued{
		ClientID:  cs.ClientID,
		Secret:    cs.Secret,
		CreatedAt: cs.CreatedAt,
		ExpiresAt: cs.ExpiresAt,
	}, nil
}

// Info returns the contributor's application state plus the current secret
// window, if any. The secret value itself is never included.
func (r *Rotator) Info(ctx context.Context, userID string) (Info, error) {
	app, err := r.apps.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, contributor.ErrNotFound) {
			return Info{}, contributor.ErrNotFound
		}
		return Info{}, err
	}

	info := Info{UserID: app.UserID, ClientID: app.ClientID, Status: app.Status}

	cs, err := r.store.Get(ctx, app.ClientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return info, nil
		}
		return Info{}, err
	}

	info.Secret = &SecretWindow{CreatedAt: cs.CreatedAt, ExpiresAt: cs.ExpiresAt}
	return info, nil
}

// RemoveForClient deletes the secret and its mirrored copy entirely. Used
// when a contributor's acceptance is revoked.
func (r *Rotator) RemoveForClient(ctx context.Context, clientID string) error {
	if err := r.store.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("credential: delete secret: %w", err)
	}
	if err := r.mirror.Remove(ctx, clientID); err != nil {
		return fmt.Errorf("credential: remove mirror: %w", err)
	}
	return nil
}
