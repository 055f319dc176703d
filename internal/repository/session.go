package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/flowerdaily/internal/models"
)

// PostgresSessionRepository stores login sessions in PostgreSQL. Expired rows
// are removed by db.StartExpiredSessionCleaner.
type PostgresSessionRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// CreateSession stores a new session.
func (r *PostgresSessionRepository) CreateSession(ctx context.Context, s models.Session) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.TokenHash, s.UserID, s.Role, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("CreateSession: %w", err)
	}
	return nil
}

// GetSession returns the session with the given token hash, expired or not.
func (r *PostgresSessionRepository) GetSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	var s models.Session
	err := r.DB.QueryRowContext(ctx, `
		SELECT token_hash, user_id, role, created_at, expires_at FROM sessions WHERE token_hash = $1
	`, tokenHash).Scan(&s.TokenHash, &s.UserID, &s.Role, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSession: %w", err)
	}
	return &s, nil
}

// DeleteSession removes one session. Deleting an unknown session is not an error.
func (r *PostgresSessionRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("DeleteSession: %w", err)
	}
	return nil
}

// DeleteUserSessions revokes every session of a user.
func (r *PostgresSessionRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("DeleteUserSessions: %w", err)
	}
	return nil
}
