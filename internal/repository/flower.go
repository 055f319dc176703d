// Package repository provides PostgreSQL and Redis persistence for flowers,
// users, sessions and settings.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/lib/pq"
)

const flowerColumns = `id, name, latin_name, description, meaning, image_url, created_at, updated_at`

// PostgresFlowerRepository implements flower storage against a PostgreSQL database.
type PostgresFlowerRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresFlowerRepository creates a new PostgresFlowerRepository using the provided *sql.DB.
func NewPostgresFlowerRepository(db *sql.DB) *PostgresFlowerRepository {
	return &PostgresFlowerRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlower(row rowScanner) (models.Flower, error) {
	var f models.Flower
	err := row.Scan(&f.ID, &f.Name, &f.LatinName, &f.Description, &f.Meaning, &f.ImageURL, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

// ListAvailableIDs returns the IDs of all flowers not present in excluded.
func (r *PostgresFlowerRepository) ListAvailableIDs(ctx context.Context, excluded []string) ([]string, error) {
	if excluded == nil {
		// a nil array is sent as NULL, and NOT (id = ANY(NULL)) matches nothing
		excluded = []string{}
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id FROM flowers WHERE NOT (id = ANY($1))
	`, pq.Array(excluded))
	if err != nil {
		return nil, fmt.Errorf("ListAvailableIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetFlowersByIDs fetches the flowers with the given IDs. Unknown IDs are skipped.
func (r *PostgresFlowerRepository) GetFlowersByIDs(ctx context.Context, ids []string) ([]models.Flower, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+flowerColumns+` FROM flowers WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("GetFlowersByIDs: %w", err)
	}
	defer rows.Close()

	flowers := make([]models.Flower, 0, len(ids))
	for rows.Next() {
		f, err := scanFlower(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		flowers = append(flowers, f)
	}
	return flowers, rows.Err()
}

// ListFlowers returns the whole catalogue ordered by name.
func (r *PostgresFlowerRepository) ListFlowers(ctx context.Context) ([]models.Flower, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+flowerColumns+` FROM flowers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("ListFlowers: %w", err)
	}
	defer rows.Close()

	var flowers []models.Flower
	for rows.Next() {
		f, err := scanFlower(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		flowers = append(flowers, f)
	}
	return flowers, rows.Err()
}

// GetFlower retrieves a single flower by ID.
func (r *PostgresFlowerRepository) GetFlower(ctx context.Context, id string) (*models.Flower, error) {
	f, err := scanFlower(r.DB.QueryRowContext(ctx, `
		SELECT `+flowerColumns+` FROM flowers WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetFlower: %w", err)
	}
	return &f, nil
}

// CreateFlower inserts a new flower. ID and timestamps must be set by the caller.
func (r *PostgresFlowerRepository) CreateFlower(ctx context.Context, f models.Flower) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO flowers (`+flowerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, f.ID, f.Name, f.LatinName, f.Description, f.Meaning, f.ImageURL, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("CreateFlower: %w", mapPQError(err))
	}
	return nil
}

// UpdateFlower overwrites the editable fields of an existing flower.
func (r *PostgresFlowerRepository) UpdateFlower(ctx context.Context, f models.Flower) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE flowers
		   SET name = $2, latin_name = $3, description = $4, meaning = $5, image_url = $6, updated_at = $7
		 WHERE id = $1
	`, f.ID, f.Name, f.LatinName, f.Description, f.Meaning, f.ImageURL, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdateFlower: %w", err)
	}
	return requireAffected(res)
}

// DeleteFlower removes a flower by ID.
func (r *PostgresFlowerRepository) DeleteFlower(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM flowers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteFlower: %w", err)
	}
	return requireAffected(res)
}

// requireAffected turns a zero-row result into models.ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// mapPQError translates unique violations into models.ErrConflict.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.ErrConflict
	}
	return err
}
