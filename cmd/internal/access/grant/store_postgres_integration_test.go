package grant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// newIntegrationStore connects to the database named by DATAGATE_DATABASE_URL
// and ensures the schema exists. Tests that call it are skipped when the
// variable is unset so the suite stays runnable without Postgres.
func newIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("DATAGATE_DATABASE_URL")
	if dsn == "" {
		t.Skip("DATAGATE_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS datagate;
		CREATE TABLE IF NOT EXISTS datagate.access_grants (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			client_id        TEXT NOT NULL,
			ip_address       TEXT,
			user_agent       TEXT,
			created_at       TIMESTAMPTZ NOT NULL,
			expires_at       TIMESTAMPTZ NOT NULL,
			last_accessed_at TIMESTAMPTZ NOT NULL,
			is_active        BOOLEAN NOT NULL DEFAULT TRUE,
			permissions      TEXT[] NOT NULL
		);
		CREATE INDEX IF NOT EXISTS access_grants_user_live_idx
			ON datagate.access_grants (user_id) WHERE is_active;
	`); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return NewPostgresStore(pool)
}

func integrationGrant(userID string, now time.Time) Grant {
	return Grant{
		ID:             ulid.Make().String(),
		UserID:         userID,
		ClientID:       "client-" + userID,
		IPAddress:      "198.51.100.4",
		UserAgent:      "datagate-test/1.0",
		CreatedAt:      now,
		ExpiresAt:      now.Add(24 * time.Hour),
		LastAccessedAt: now,
		Active:         true,
		Permissions:    DefaultPermissions(),
	}
}

func TestPostgresStore_CreateEnforcesCap(t *testing.T) {
	store := newIntegrationStore(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := fmt.Sprintf("it-cap-%d", now.UnixNano())

	for i := 0; i < 3; i++ {
		if err := store.Create(ctx, integrationGrant(userID, now), 3); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if err := store.Create(ctx, integrationGrant(userID, now), 3); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	live, err := store.ListLive(ctx, now, userID)
	if err != nil {
		t.Fatalf("ListLive: %v", err)
	}
	if len(live) != 3 {
		t.Fatalf("expected 3 live grants, got %d", len(live))
	}
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := newIntegrationStore(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := fmt.Sprintf("it-rt-%d", now.UnixNano())

	g := integrationGrant(userID, now)
	if err := store.Create(ctx, g, 3); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetLive(ctx, now, g.ID)
	if err != nil {
		t.Fatalf("GetLive: %v", err)
	}
	if got.UserID != g.UserID || got.ClientID != g.ClientID {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.IPAddress != g.IPAddress || got.UserAgent != g.UserAgent {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if !got.ExpiresAt.Equal(g.ExpiresAt) {
		t.Fatalf("expiry mismatch: %v != %v", got.ExpiresAt, g.ExpiresAt)
	}
	if len(got.Permissions) != 2 {
		t.Fatalf("permissions mismatch: %v", got.Permissions)
	}
}

func TestPostgresStore_ExtendLiveIsAtomic(t *testing.T) {
	store := newIntegrationStore(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := fmt.Sprintf("it-ext-%d", now.UnixNano())

	g := integrationGrant(userID, now)
	if err := store.Create(ctx, g, 3); err != nil {
		t.Fatalf("Create: %v", err)
	}

	later := now.Add(time.Minute)
	got, err := store.ExtendLive(ctx, later, g.ID, 12*time.Hour)
	if err != nil {
		t.Fatalf("ExtendLive: %v", err)
	}
	if !got.ExpiresAt.Equal(g.ExpiresAt.Add(12 * time.Hour)) {
		t.Fatalf("expected expiry +12h, got %v", got.ExpiresAt)
	}
	if !got.LastAccessedAt.Equal(later) {
		t.Fatalf("expected last accessed %v, got %v", later, got.LastAccessedAt)
	}

	// Once deactivated the grant stops matching the live predicate and the
	// update affects no row.
	if err := store.Deactivate(ctx, g.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := store.ExtendLive(ctx, later, g.ID, time.Hour); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after deactivation, got %v", err)
	}
}

func TestPostgresStore_ReapExpired(t *testing.T) {
	store := newIntegrationStore(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := fmt.Sprintf("it-reap-%d", now.UnixNano())

	stale := integrationGrant(userID, now.Add(-48*time.Hour))
	if err := store.Create(ctx, stale, 3); err != nil {
		t.Fatalf("Create stale: %v", err)
	}
	fresh := integrationGrant(userID, now)
	if err := store.Create(ctx, fresh, 3); err != nil {
		t.Fatalf("Create fresh: %v", err)
	}

	// ReapExpired touches every contributor's rows, so concurrent suites can
	// inflate the count; assert on this user's rows instead.
	if _, err := store.ReapExpired(ctx, now); err != nil {
		t.Fatalf("ReapExpired: %v", err)
	}

	if _, err := store.GetLive(ctx, now, stale.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale grant reaped, got %v", err)
	}
	if _, err := store.GetLive(ctx, now, fresh.ID); err != nil {
		t.Fatalf("expected fresh grant live: %v", err)
	}
}

func TestPostgresStore_DeactivateAllForUser(t *testing.T) {
	store := newIntegrationStore(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := fmt.Sprintf("it-dall-%d", now.UnixNano())

	for i := 0; i < 2; i++ {
		if err := store.Create(ctx, integrationGrant(userID, now), 3); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	n, err := store.DeactivateAllForUser(ctx, now, userID)
	if err != nil {
		t.Fatalf("DeactivateAllForUser: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deactivated, got %d", n)
	}

	live, err := store.ListLive(ctx, now, userID)
	if err != nil {
		t.Fatalf("ListLive: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected no live grants, got %d", len(live))
	}
}
