package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/flowerdaily/internal/models"
)

// PostgresSettingRepository implements the key-value settings table.
type PostgresSettingRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSettingRepository creates a new PostgresSettingRepository.
func NewPostgresSettingRepository(db *sql.DB) *PostgresSettingRepository {
	return &PostgresSettingRepository{DB: db}
}

// GetSetting reads one setting as stored (encrypted values stay encrypted).
func (r *PostgresSettingRepository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var s models.Setting
	err := r.DB.QueryRowContext(ctx, `
		SELECT key, value, encrypted, updated_at FROM settings WHERE key = $1
	`, key).Scan(&s.Key, &s.Value, &s.Encrypted, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSetting: %w", err)
	}
	return &s, nil
}

// UpsertSetting inserts the setting or overwrites the existing row with the same key.
func (r *PostgresSettingRepository) UpsertSetting(ctx context.Context, s models.Setting) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value, encrypted, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			encrypted = EXCLUDED.encrypted,
			updated_at = EXCLUDED.updated_at
	`, s.Key, s.Value, s.Encrypted, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpsertSetting: %w", err)
	}
	return nil
}

// DeleteSetting removes a setting by key.
func (r *PostgresSettingRepository) DeleteSetting(ctx context.Context, key string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("DeleteSetting: %w", err)
	}
	return requireAffected(res)
}

// ListSettings returns every stored setting ordered by key.
func (r *PostgresSettingRepository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT key, value, encrypted, updated_at FROM settings ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("ListSettings: %w", err)
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Encrypted, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
