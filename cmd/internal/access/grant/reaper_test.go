package grant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSweepOnce_DeactivatesOnlyExpired(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, DefaultConfig())
	env.acceptContributor("user-1")

	ctx := context.Background()
	now := time.Now().UTC()

	expired, _, err := env.svc.Create(ctx, now.Add(-30*time.Hour), "user-1", "", "")
	if err != nil {
		t.Fatalf("Create expired: %v", err)
	}
	live, _, err := env.svc.Create(ctx, now, "user-1", "", "")
	if err != nil {
		t.Fatalf("Create live: %v", err)
	}

	reaper := NewReaper(env.store, time.Hour, nil, nil)
	n, err := reaper.SweepOnce(ctx, now)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reaped, got %d", n)
	}

	got, ok := env.store.Get(expired.ID)
	if !ok {
		t.Fatalf("expected expired grant to remain stored")
	}
	if got.Active {
		t.Fatalf("expected expired grant deactivated")
	}

	got, ok = env.store.Get(live.ID)
	if !ok || !got.Active {
		t.Fatalf("expected live grant untouched")
	}
}

func TestSweepOnce_IsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, DefaultConfig())
	env.acceptContributor("user-1")

	ctx := context.Background()
	now := time.Now().UTC()

	if _, _, err := env.svc.Create(ctx, now.Add(-30*time.Hour), "user-1", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reaper := NewReaper(env.store, time.Hour, nil, nil)
	if n, err := reaper.SweepOnce(ctx, now); err != nil || n != 1 {
		t.Fatalf("first sweep: n=%d err=%v", n, err)
	}
	if n, err := reaper.SweepOnce(ctx, now); err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
}

func TestSweepOnce_ConvergesWithUserDeletion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, DefaultConfig())
	env.acceptContributor("user-1")

	ctx := context.Background()
	now := time.Now().UTC()

	g, _, err := env.svc.Create(ctx, now.Add(-30*time.Hour), "user-1", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A user deletion racing the reaper lands first; the sweep then
	// finds nothing and both paths settle on the same terminal state.
	if err := env.store.Deactivate(ctx, g.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	reaper := NewReaper(env.store, time.Hour, nil, nil)
	if n, err := reaper.SweepOnce(ctx, now); err != nil || n != 0 {
		t.Fatalf("sweep after delete: n=%d err=%v", n, err)
	}

	got, ok := env.store.Get(g.ID)
	if !ok || got.Active {
		t.Fatalf("expected grant to stay deactivated")
	}
}

func TestSweepRacesExtension(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	// Race a sweep (past expiry) against an extension (before expiry) on
	// the same grant, many times. Whichever lands first must win outright:
	// an extended grant is not reaped, a reaped grant is not extendable.
	for i := 0; i < 100; i++ {
		g := Grant{
			ID:             fmt.Sprintf("race-%03d", i),
			UserID:         "user-1",
			ClientID:       "client-1",
			CreatedAt:      base,
			ExpiresAt:      base.Add(time.Hour),
			LastAccessedAt: base,
			Active:         true,
			Permissions:    DefaultPermissions(),
		}
		if err := store.Create(ctx, g, 1000); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}

		extendNow := g.ExpiresAt.Add(-time.Second)
		sweepNow := g.ExpiresAt.Add(time.Second)

		var (
			wg     sync.WaitGroup
			extErr error
			reaped int
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, extErr = store.ExtendLive(ctx, extendNow, g.ID, 12*time.Hour)
		}()
		go func() {
			defer wg.Done()
			reaped, _ = store.ReapExpired(ctx, sweepNow)
		}()
		wg.Wait()

		got, ok := store.Get(g.ID)
		if !ok {
			t.Fatalf("iteration %d: grant vanished", i)
		}
		switch {
		case extErr == nil:
			if reaped != 0 {
				t.Fatalf("iteration %d: extended grant was also reaped", i)
			}
			if !got.Active || !got.ExpiresAt.Equal(g.ExpiresAt.Add(12*time.Hour)) {
				t.Fatalf("iteration %d: extension did not stick: %+v", i, got)
			}
		case errors.Is(extErr, ErrNotFound):
			if reaped != 1 {
				t.Fatalf("iteration %d: reaped=%d after winning sweep", i, reaped)
			}
			if got.Active || !got.ExpiresAt.Equal(g.ExpiresAt) {
				t.Fatalf("iteration %d: reaped grant mutated: %+v", i, got)
			}
		default:
			t.Fatalf("iteration %d: unexpected extend error: %v", i, extErr)
		}
	}
}

func TestRun_SweepsAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, DefaultConfig())
	env.acceptContributor("user-1")

	ctx := context.Background()
	now := time.Now().UTC()

	if _, _, err := env.svc.Create(ctx, now.Add(-30*time.Hour), "user-1", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	reaper := NewReaper(env.store, time.Hour, nil, nil)

	done := make(chan struct{})
	go func() {
		reaper.Run(runCtx)
		close(done)
	}()

	// Run performs an immediate sweep before settling into its ticker.
	deadline := time.Now().Add(2 * time.Second)
	for {
		live, err := env.store.ListLive(ctx, now, "user-1")
		if err != nil {
			t.Fatalf("ListLive: %v", err)
		}
		if len(live) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("reaper did not sweep in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("reaper did not stop on cancellation")
	}
}
