package credential

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using Postgres (datagate.client_secrets).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed secret store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get loads the secret record for a client id.
func (s *PostgresStore) Get(ctx context.Context, clientID string) (ClientSecret, error) {
	var cs ClientSecret

	err := s.pool.QueryRow(ctx, `
		SELECT client_id, secret, created_at, expires_at
		FROM datagate.client_secrets
		WHERE client_id = $1
	`, clientID).Scan(&cs.ClientID, &cs.Secret, &cs.CreatedAt, &cs.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ClientSecret{}, ErrNotFound
	}
	if err != nil {
		return ClientSecret{}, err
	}

	return cs, nil
}

// Put inserts or replaces the secret record for cs.ClientID.
func (s *PostgresStore) Put(ctx context.Context, cs ClientSecret) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO datagate.client_secrets (client_id, secret, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id) DO UPDATE
		SET secret = EXCLUDED.secret,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
	`, cs.ClientID, cs.Secret, cs.CreatedAt, cs.ExpiresAt)
	return err
}

// Delete removes the secret record for a client id.
func (s *PostgresStore) Delete(ctx context.Context, clientID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM datagate.client_secrets
		WHERE client_id = $1
	`, clientID)
	return err
}
