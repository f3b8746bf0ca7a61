package grant

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (datagate.access_grants).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed grant store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const grantColumns = `
	id, user_id, client_id, ip_address, user_agent,
	created_at, expires_at, last_accessed_at, is_active, permissions`

// Create inserts a grant after re-checking the owner's live count inside a
// transaction. A per-user advisory lock serializes concurrent creates for
// the same contributor so two of them cannot both pass the cap check;
// creates for different contributors do not contend.
func (s *PostgresStore) Create(ctx context.Context, g Grant, maxLive int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtextextended('access_grants:' || $1, 0))
	`, g.UserID); err != nil {
		return err
	}

	var live int
	if err := tx.QueryRow(ctx, `
		SELECT count(*)
		FROM datagate.access_grants
		WHERE user_id = $1 AND is_active AND expires_at > $2
	`, g.UserID, g.CreatedAt).Scan(&live); err != nil {
		return err
	}
	if live >= maxLive {
		return ErrQuotaExceeded
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO datagate.access_grants (
			id, user_id, client_id, ip_address, user_agent,
			created_at, expires_at, last_accessed_at, is_active, permissions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
	`, g.ID, g.UserID, g.ClientID, nullIfEmpty(g.IPAddress), nullIfEmpty(g.UserAgent),
		g.CreatedAt, g.ExpiresAt, g.LastAccessedAt, g.Permissions); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetLive loads the live grant with the given id.
func (s *PostgresStore) GetLive(ctx context.Context, now time.Time, id string) (Grant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+grantColumns+`
		FROM datagate.access_grants
		WHERE id = $1 AND is_active AND expires_at > $2
	`, id, now)
	return scanGrant(row)
}

// ListLive returns the user's live grants in creation order. Grant ids are
// ULIDs, so ordering by id is ordering by creation time.
func (s *PostgresStore) ListLive(ctx context.Context, now time.Time, userID string) ([]Grant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM datagate.access_grants
		WHERE user_id = $1 AND is_active AND expires_at > $2
		ORDER BY id
	`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Deactivate clears the active flag (idempotent).
func (s *PostgresStore) Deactivate(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE datagate.access_grants
		SET is_active = FALSE
		WHERE id = $1
	`, id)
	return err
}

// DeactivateAllForUser clears the active flag on all live grants of a user.
func (s *PostgresStore) DeactivateAllForUser(ctx context.Context, now time.Time, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE datagate.access_grants
		SET is_active = FALSE
		WHERE user_id = $1 AND is_active AND expires_at > $2
	`, userID, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ExtendLive moves a live grant's expiry forward in a single atomic update.
// The live predicate in the WHERE clause is what makes a race with the
// reaper safe: whichever statement commits second sees the other's effect.
func (s *PostgresStore) ExtendLive(ctx context.Context, now time.Time, id string, by time.Duration) (Grant, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE datagate.access_grants
		SET expires_at = expires_at + make_interval(secs => $3),
		    last_accessed_at = $2
		WHERE id = $1 AND is_active AND expires_at > $2
		RETURNING `+grantColumns+`
	`, id, now, by.Seconds())
	return scanGrant(row)
}

// ReapExpired deactivates every grant whose expiry has passed.
func (s *PostgresStore) ReapExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE datagate.access_grants
		SET is_active = FALSE
		WHERE is_active AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanGrant(row pgx.Row) (Grant, error) {
	var (
		g  Grant
		ip *string
		ua *string
	)

	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.ClientID,
		&ip,
		&ua,
		&g.CreatedAt,
		&g.ExpiresAt,
		&g.LastAccessedAt,
		&g.Active,
		&g.Permissions,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, ErrNotFound
	}
	if err != nil {
		return Grant{}, err
	}

	if ip != nil {
		g.IPAddress = *ip
	}
	if ua != nil {
		g.UserAgent = *ua
	}
	return g, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
