package grant

import (
	"context"
	"log/slog"
	"time"
)

// Reaper deactivates expired grants on a fixed interval, independent of
// request traffic. Expiry is still enforced lazily by the live-grant
// predicates, so the reaper is a reclamation pass, not a correctness gate.
//
// Sweep failures are logged and retried at the next tick; they are never
// escalated into a process failure or a user-visible error.
type Reaper struct {
	store    Store
	interval time.Duration
	log      *slog.Logger
	metrics  *Metrics
}

// NewReaper constructs a Reaper sweeping at the given interval.
func NewReaper(store Store, interval time.Duration, log *slog.Logger, metrics *Metrics) *Reaper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{store: store, interval: interval, log: log, metrics: metrics}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// The immediate sweep reclaims grants that expired while the process was
// down.
func (r *Reaper) Run(ctx context.Context) {
	r.sweep(ctx)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reaper.stop")
			return
		case <-t.C:
			r.sweep(ctx)
		}
	}
}

// SweepOnce runs a single sweep at now and returns how many grants it
// deactivated. Idempotent: a second sweep with no new expirations is a
// no-op.
func (r *Reaper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	n, err := r.store.ReapExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	r.metrics.reaped(n)
	return n, nil
}

func (r *Reaper) sweep(ctx context.Context) {
	n, err := r.SweepOnce(ctx, time.Now().UTC())
	if err != nil {
		r.log.Error("reaper.sweep.fail", "err", err)
		return
	}
	if n > 0 {
		r.log.Info("reaper.sweep", "deactivated", n)
	}
}
