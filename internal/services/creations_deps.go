package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/snappy-loop/genimage/internal/models"
)

// Invoker runs one generation attempt and returns the path of the written result envelope.
type Invoker interface {
	Invoke(ctx context.Context, requestID, prompt string) (string, error)
}

// ImageStore is the subset of object storage used by CreationService.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
	GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// CreationPublisher publishes creation events (e.g. to Kafka). May be nil to skip publishing.
type CreationPublisher interface {
	PublishCreation(ctx context.Context, event *models.CreationEvent) error
}

// CreationRepository is the subset of creation DB operations used by CreationService. May be nil to skip persistence.
type CreationRepository interface {
	Create(ctx context.Context, c *models.Creation) error
	MarkCompleted(ctx context.Context, id uuid.UUID, imageKey, imageURL string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorKind, errorMessage string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Creation, error)
}
