package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/flowerdaily/internal/models"
)

// PostgresUserRepository implements back-office account storage using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts a new account. A duplicate username yields models.ErrConflict.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateUser: %w", mapPQError(err))
	}
	return nil
}

// GetUserByUsername looks an account up by login name.
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByUsername: %w", err)
	}
	return &u, nil
}

// ListUsers returns all accounts ordered by username.
func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, username, password_hash, role, created_at FROM users ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdatePasswordHash replaces the stored digest of an account.
func (r *PostgresUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("UpdatePasswordHash: %w", err)
	}
	return requireAffected(res)
}

// DeleteUser removes an account; its sessions go with it (ON DELETE CASCADE).
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return requireAffected(res)
}
