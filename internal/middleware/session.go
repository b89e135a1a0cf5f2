package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"task_tracker/internal/domain"
	"task_tracker/internal/session"
	"task_tracker/pkg/logger"
)

// LoadSession resolves the session cookie and stores the result in the
// request context. Anonymous requests pass through with no session.
func LoadSession(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Load(r)
			if err != nil {
				logger.Logger.Error("Failed to load session", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, domain.Internal("Failed to load session"))
				return
			}
			if s != nil {
				r = r.WithContext(session.NewContext(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.FromContext(r.Context()) == nil {
			writeError(w, domain.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager expects RequireAuth to have run first.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		if s == nil {
			writeError(w, domain.ErrNotAuthenticated)
			return
		}
		if !s.IsManager() {
			writeError(w, domain.ErrManagerRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, e *domain.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{"message": e.Message})
}
