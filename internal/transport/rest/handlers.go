// Package rest exposes the tracker over HTTP/JSON. Every handler runs in
// the same order: authorization, validation, then delegation to storage.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"task_tracker/internal/credentials"
	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
	"task_tracker/internal/session"
	"task_tracker/internal/utils"
	"task_tracker/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Handlers holds the dependencies shared by every endpoint.
type Handlers struct {
	storage     repository.Storage
	sessions    *session.Manager
	credentials *credentials.Cache
}

func NewHandlers(storage repository.Storage, sessions *session.Manager, creds *credentials.Cache) *Handlers {
	if creds == nil {
		creds = credentials.New(credentials.Disabled())
	}
	return &Handlers{storage: storage, sessions: sessions, credentials: creds}
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Logger.Error("Failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondError writes client-facing domain errors as they are. Anything else
// is logged and replaced by fallback.
func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if e, ok := domain.AsError(err); ok {
		respondWithJSON(w, e.HTTPStatus(), messageResponse{Message: e.Message})
		return
	}
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		respondWithJSON(w, http.StatusBadRequest, messageResponse{Message: ve.Message})
		return
	}
	logger.Logger.Error(fallback,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respondWithJSON(w, http.StatusInternalServerError, messageResponse{Message: fallback})
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return utils.ValidateStruct(dst)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.Validation("Invalid request payload")
	}
	return nil
}

func currentSession(r *http.Request) *session.Session {
	return session.FromContext(r.Context())
}

// requireEmployee resolves id to an existing employee account.
func (h *Handlers) requireEmployee(r *http.Request, id string) error {
	u, err := h.storage.GetUser(r.Context(), id)
	if err != nil {
		return err
	}
	if u == nil || u.Role != domain.RoleEmployee {
		return domain.Validation("Assigned user must be an existing employee")
	}
	return nil
}
