package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/genimage/internal/database"
	"github.com/snappy-loop/genimage/internal/models"
	"github.com/snappy-loop/genimage/internal/services"
)

// creationService is the subset of services.CreationService used by Handler.
type creationService interface {
	CreateCreation(ctx context.Context, req *models.CreateCreationRequest) (*models.CreateCreationResponse, error)
	GetCreation(ctx context.Context, id uuid.UUID) (*models.Creation, error)
}

// HealthFunc reports whether a dependency is healthy.
type HealthFunc func(ctx context.Context) error

// Handler contains all HTTP handlers
type Handler struct {
	creations creationService
	health    HealthFunc
}

// NewHandler creates a new handler. health may be nil.
func NewHandler(creations creationService, health HealthFunc) *Handler {
	return &Handler{creations: creations, health: health}
}

// Register mounts the routes on r; protected routes go through authMW.
func (h *Handler) Register(r *mux.Router, authMW mux.MiddlewareFunc) {
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if authMW != nil {
		api.Use(authMW)
	}
	api.HandleFunc("/creations", h.CreateCreation).Methods(http.MethodPost)
	api.HandleFunc("/creations/{id}", h.GetCreation).Methods(http.MethodGet)
}

// CreateCreation handles POST /api/creations
func (h *Handler) CreateCreation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCreationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.creations.CreateCreation(r.Context(), &req)
	if err != nil {
		var genErr *services.GenerationError
		switch {
		case errors.Is(err, services.ErrValidation):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &genErr):
			status := http.StatusBadGateway
			if genErr.Retryable {
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, map[string]string{
				"error":      genErr.Message,
				"error_kind": string(genErr.Kind),
			})
		default:
			log.Error().Err(err).Msg("Failed to create creation")
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetCreation handles GET /api/creations/{id}
func (h *Handler) GetCreation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid creation id")
		return
	}

	creation, err := h.creations.GetCreation(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "creation not found")
	case errors.Is(err, services.ErrPersistenceDisabled):
		writeJSONError(w, http.StatusNotImplemented, err.Error())
	case err != nil:
		log.Error().Err(err).Str("creation_id", id.String()).Msg("Failed to get creation")
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, creation)
	}
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
