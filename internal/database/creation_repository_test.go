package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/snappy-loop/genimage/internal/models"
	"github.com/snappy-loop/genimage/migrations"
)

// TestCreationRepository_Lifecycle runs against a real Postgres when DATABASE_URL is set.
func TestCreationRepository_Lifecycle(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := Connect(dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db.SQLDB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewCreationRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	c := &models.Creation{ID: uuid.New(), Prompt: "a paper boat", Status: models.CreationPending, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.MarkCompleted(ctx, c.ID, "images/x.png", "https://example.test/x.png"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.CreationCompleted || got.ImageURL == nil || *got.ImageURL != "https://example.test/x.png" {
		t.Errorf("unexpected creation: %+v", got)
	}

	failed := &models.Creation{ID: uuid.New(), Prompt: "blocked", Status: models.CreationPending, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, failed); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.MarkFailed(ctx, failed.ID, "empty_result", "No images were generated in the response"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	got, err = repo.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.CreationFailed || got.ErrorKind == nil || *got.ErrorKind != "empty_result" {
		t.Errorf("unexpected creation: %+v", got)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.MarkFailed(ctx, uuid.New(), "internal", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on missing row, got %v", err)
	}
}
