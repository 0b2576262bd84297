package models

import (
	"time"

	"github.com/google/uuid"
)

// Creation statuses
const (
	CreationPending   = "pending"
	CreationCompleted = "completed"
	CreationFailed    = "failed"
)

// Creation represents one prompt submitted through the API and its generated image
type Creation struct {
	ID           uuid.UUID `json:"id"`
	Prompt       string    `json:"prompt"`
	Status       string    `json:"status"` // pending, completed, failed
	ImageKey     *string   `json:"image_key,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	ErrorKind    *string   `json:"error_kind,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCreationRequest is the body of POST /api/creations
type CreateCreationRequest struct {
	Prompt string `json:"prompt"`
}

// CreateCreationResponse is returned when an image was generated and stored
type CreateCreationResponse struct {
	ID       uuid.UUID `json:"id"`
	ImageURL string    `json:"image_url"`
}

// CreationEvent is published when a creation finishes
type CreationEvent struct {
	CreationID uuid.UUID `json:"creation_id"`
	Event      string    `json:"event"` // "creation.completed", "creation.failed"
	ImageURL   string    `json:"image_url,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
