package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/snappy-loop/genimage/internal/models"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// CreationRepository handles creation persistence
type CreationRepository struct {
	db *DB
}

// NewCreationRepository creates a new creation repository
func NewCreationRepository(db *DB) *CreationRepository {
	return &CreationRepository{db: db}
}

// Create inserts a new creation
func (r *CreationRepository) Create(ctx context.Context, c *models.Creation) error {
	query := `
		INSERT INTO creations (id, prompt, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Prompt, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert creation: %w", err)
	}
	return nil
}

// MarkCompleted records the stored image for a creation
func (r *CreationRepository) MarkCompleted(ctx context.Context, id uuid.UUID, imageKey, imageURL string) error {
	query := `
		UPDATE creations
		SET status = $1, image_key = $2, image_url = $3, updated_at = NOW()
		WHERE id = $4
	`
	return r.update(ctx, id, query, models.CreationCompleted, imageKey, imageURL, id)
}

// MarkFailed records why a creation failed
func (r *CreationRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorKind, errorMessage string) error {
	query := `
		UPDATE creations
		SET status = $1, error_kind = $2, error_message = $3, updated_at = NOW()
		WHERE id = $4
	`
	return r.update(ctx, id, query, models.CreationFailed, errorKind, errorMessage, id)
}

func (r *CreationRepository) update(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update creation %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("creation %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetByID retrieves a creation by ID
func (r *CreationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Creation, error) {
	query := `
		SELECT id, prompt, status, image_key, image_url, error_kind, error_message, created_at, updated_at
		FROM creations
		WHERE id = $1
	`
	var c models.Creation
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Prompt, &c.Status, &c.ImageKey, &c.ImageURL,
		&c.ErrorKind, &c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("creation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get creation %s: %w", id, err)
	}
	return &c, nil
}
