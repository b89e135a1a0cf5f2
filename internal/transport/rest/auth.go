package rest

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
	"task_tracker/internal/utils"
	"task_tracker/pkg/logger"
)

type userResponse struct {
	User *domain.User `json:"user"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err, "Registration failed")
		return
	}
	role := domain.RoleEmployee
	if req.Role != nil {
		role = domain.ParseRole(*req.Role)
	}
	user, err := h.createUser(r, domain.NewUser{Name: req.Name, Email: req.Email, Password: req.Password, Role: role})
	if err != nil {
		respondError(w, r, err, "Registration failed")
		return
	}
	if _, err := h.sessions.Establish(r.Context(), w, currentSession(r), user); err != nil {
		respondError(w, r, err, "Registration failed")
		return
	}
	respondWithJSON(w, http.StatusOK, userResponse{User: user})
}

// createUser rejects taken emails and stores the account with a hashed
// password. nu.Password is the plaintext.
func (h *Handlers) createUser(r *http.Request, nu domain.NewUser) (*domain.User, error) {
	existing, err := h.storage.GetUserByEmail(r.Context(), nu.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}
	hashed, err := utils.HashPassword(nu.Password)
	if err != nil {
		return nil, err
	}
	nu.Password = hashed
	user, err := h.storage.CreateUser(r.Context(), nu)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, domain.ErrEmailTaken
	}
	return user, err
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err, "Login failed")
		return
	}
	user, err := h.storage.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, r, err, "Login failed")
		return
	}
	if user == nil || utils.VerifyPassword(user.Password, req.Password) != nil {
		respondError(w, r, domain.ErrInvalidCredentials, "Login failed")
		return
	}
	if _, err := h.sessions.Establish(r.Context(), w, currentSession(r), user); err != nil {
		respondError(w, r, err, "Login failed")
		return
	}
	respondWithJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	user, err := h.storage.GetUser(r.Context(), s.UserID)
	if err != nil {
		respondError(w, r, err, "Failed to check authentication")
		return
	}
	if user == nil {
		if err := h.sessions.Destroy(r.Context(), w, s); err != nil {
			logger.Logger.Warn("Failed to destroy stale session", zap.Error(err))
		}
		respondError(w, r, domain.ErrUserVanished, "")
		return
	}
	respondWithJSON(w, http.StatusOK, userResponse{User: user})
}

// Logout needs no session and always succeeds for the caller.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, currentSession(r)); err != nil {
		logger.Logger.Warn("Failed to destroy session", zap.Error(err))
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}
