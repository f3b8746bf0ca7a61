package credential

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresMirror implements Mirror using Postgres
// (datagate.downstream_credentials). The downstream integration reads this
// table to provision data-store users; datagate only ever writes it.
type PostgresMirror struct {
	pool *pgxpool.Pool
}

// NewPostgresMirror creates a Postgres-backed credential mirror.
func NewPostgresMirror(pool *pgxpool.Pool) *PostgresMirror {
	return &PostgresMirror{pool: pool}
}

// SetSecret overwrites the mirrored client secret.
func (m *PostgresMirror) SetSecret(ctx context.Context, clientID, secret string) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO datagate.downstream_credentials (client_id, client_secret, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id) DO UPDATE
		SET client_secret = EXCLUDED.client_secret,
		    updated_at = EXCLUDED.updated_at
	`, clientID, secret, time.Now().UTC())
	return err
}

// SetEndpointPassword overwrites the mirrored endpoint username and password hash.
func (m *PostgresMirror) SetEndpointPassword(ctx context.Context, clientID, username, passwordHash string) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO datagate.downstream_credentials (client_id, endpoint_username, endpoint_password_hash, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id) DO UPDATE
		SET endpoint_username = EXCLUDED.endpoint_username,
		    endpoint_password_hash = EXCLUDED.endpoint_password_hash,
		    updated_at = EXCLUDED.updated_at
	`, clientID, username, passwordHash, time.Now().UTC())
	return err
}

// Remove deletes the mirrored record for a client id.
func (m *PostgresMirror) Remove(ctx context.Context, clientID string) error {
	_, err := m.pool.Exec(ctx, `
		DELETE FROM datagate.downstream_credentials
		WHERE client_id = $1
	`, clientID)
	return err
}
