package contributor

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads contribution applications from Postgres
// (datagate.contribution_applications, owned by the approval workflow).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed application reader.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// GetByUserID loads the application for a user.
func (s *PostgresStore) GetByUserID(ctx context.Context, userID string) (Application, error) {
	var app Application

	err := s.pool.QueryRow(ctx, `
		SELECT user_id, client_id, status, created_at, updated_at
		FROM datagate.contribution_applications
		WHERE user_id = $1
	`, userID).Scan(
		&app.UserID,
		&app.ClientID,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, err
	}

	return app, nil
}
