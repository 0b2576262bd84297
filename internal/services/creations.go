package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/genimage/internal/envelope"
	"github.com/snappy-loop/genimage/internal/imagen"
	"github.com/snappy-loop/genimage/internal/models"
	"github.com/snappy-loop/genimage/internal/output"
	"github.com/snappy-loop/genimage/internal/storage"
)

var (
	// ErrValidation marks request validation failures
	ErrValidation = errors.New("validation error")
	// ErrPersistenceDisabled is returned by lookups when no database is configured
	ErrPersistenceDisabled = errors.New("creation persistence is not configured")
)

// GenerationError is returned when the result envelope reports a failure.
type GenerationError struct {
	Kind       imagen.Kind
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("image generation failed (%s): %s", e.Kind, e.Message)
}

// CreationService turns prompts into stored images
type CreationService struct {
	invoker   Invoker
	images    ImageStore
	repo      CreationRepository
	publisher CreationPublisher
	urlExpiry time.Duration
}

// NewCreationService creates a new CreationService. repo and publisher may be nil.
func NewCreationService(invoker Invoker, images ImageStore, repo CreationRepository, publisher CreationPublisher, urlExpiry time.Duration) *CreationService {
	if urlExpiry <= 0 {
		urlExpiry = 24 * time.Hour
	}
	return &CreationService{
		invoker:   invoker,
		images:    images,
		repo:      repo,
		publisher: publisher,
		urlExpiry: urlExpiry,
	}
}

// CreateCreation generates one image for prompt, stores it and returns its URL.
func (s *CreationService) CreateCreation(ctx context.Context, req *models.CreateCreationRequest) (*models.CreateCreationResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrValidation)
	}

	now := time.Now().UTC()
	creation := &models.Creation{
		ID:        uuid.New(),
		Prompt:    prompt,
		Status:    models.CreationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.repo != nil {
		if err := s.repo.Create(ctx, creation); err != nil {
			return nil, err
		}
	}

	env, err := s.generate(ctx, creation.ID, prompt)
	if err != nil {
		s.fail(ctx, creation.ID, imagen.KindInternal, err.Error())
		return nil, err
	}
	if !env.Success {
		s.fail(ctx, creation.ID, env.ErrorKind, env.Error)
		return nil, &GenerationError{
			Kind:       env.ErrorKind,
			Message:    env.Error,
			StatusCode: env.StatusCode,
			Retryable:  env.Retryable,
		}
	}

	key, url, err := s.store(ctx, creation.ID, env)
	if err != nil {
		s.fail(ctx, creation.ID, imagen.KindInternal, err.Error())
		return nil, err
	}

	if s.repo != nil {
		if err := s.repo.MarkCompleted(ctx, creation.ID, key, url); err != nil {
			s.discard(ctx, key)
			s.fail(ctx, creation.ID, imagen.KindInternal, err.Error())
			return nil, err
		}
	}
	s.publish(ctx, &models.CreationEvent{CreationID: creation.ID, Event: "creation.completed", ImageURL: url})

	log.Info().
		Str("creation_id", creation.ID.String()).
		Str("key", key).
		Msg("Creation completed")

	return &models.CreateCreationResponse{ID: creation.ID, ImageURL: url}, nil
}

// GetCreation returns a stored creation
func (s *CreationService) GetCreation(ctx context.Context, id uuid.UUID) (*models.Creation, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.GetByID(ctx, id)
}

// generate invokes the wrapper under the creation ID and consumes the envelope file.
func (s *CreationService) generate(ctx context.Context, id uuid.UUID, prompt string) (*envelope.Envelope, error) {
	path, err := s.invoker.Invoke(ctx, id.String(), prompt)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := output.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to remove result envelope")
		}
	}()
	return output.Load(path)
}

func (s *CreationService) store(ctx context.Context, id uuid.UUID, env *envelope.Envelope) (key, url string, err error) {
	data, err := env.Image()
	if err != nil {
		return "", "", err
	}
	mimeType := env.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	key = "images/" + id.String() + storage.ExtensionForMime(mimeType)
	if err := s.images.Upload(ctx, key, data, mimeType); err != nil {
		return "", "", err
	}
	if url = s.images.PublicURL(key); url != "" {
		return key, url, nil
	}
	url, err = s.images.GeneratePresignedURL(ctx, key, s.urlExpiry)
	if err != nil {
		s.discard(ctx, key)
		return "", "", err
	}
	return key, url, nil
}

// discard deletes an uploaded image that no completed creation will reference.
func (s *CreationService) discard(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to delete orphaned image")
	}
}

// fail records a failed creation; persistence and publish errors are logged, not returned.
func (s *CreationService) fail(ctx context.Context, id uuid.UUID, kind imagen.Kind, msg string) {
	log.Warn().
		Str("creation_id", id.String()).
		Str("error_kind", string(kind)).
		Str("error", msg).
		Msg("Creation failed")
	if s.repo != nil {
		if err := s.repo.MarkFailed(ctx, id, string(kind), msg); err != nil {
			log.Error().Err(err).Str("creation_id", id.String()).Msg("Failed to mark creation failed")
		}
	}
	s.publish(ctx, &models.CreationEvent{CreationID: id, Event: "creation.failed", ErrorKind: string(kind)})
}

func (s *CreationService) publish(ctx context.Context, event *models.CreationEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := s.publisher.PublishCreation(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("creation_id", event.CreationID.String()).
			Str("event", event.Event).
			Msg("Failed to publish creation event")
	}
}
