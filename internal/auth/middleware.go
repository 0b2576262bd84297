package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Service checks bearer API keys against a bcrypt hash
type Service struct {
	keyHash []byte
}

// NewService creates a new auth service. An empty keyHash disables authentication.
func NewService(keyHash string) *Service {
	if keyHash == "" {
		log.Warn().Msg("API_KEY_HASH not set; API key authentication disabled")
	}
	return &Service{keyHash: []byte(keyHash)}
}

// Enabled reports whether requests must carry an API key
func (s *Service) Enabled() bool {
	return len(s.keyHash) > 0
}

// Middleware creates an authentication middleware
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeJSONError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		apiKey := strings.TrimSpace(parts[1])
		if apiKey == "" {
			writeJSONError(w, http.StatusUnauthorized, "empty api key")
			return
		}

		// constant time compare inside bcrypt
		if err := bcrypt.CompareHashAndPassword(s.keyHash, []byte(apiKey)); err != nil {
			log.Debug().Str("path", r.URL.Path).Msg("Rejected API key")
			writeJSONError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
