package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"task_tracker/internal/middleware"
)

type RouterOptions struct {
	AllowedOrigins []string
	// ReplayCache enables Idempotency-Key handling on create endpoints.
	ReplayCache middleware.ResponseCache
	// Health, when set, is served at /healthz.
	Health http.Handler
}

// NewRouter wires every API route behind the shared middleware chain and
// wraps the result in CORS handling.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
	})
	if opts.Health != nil {
		r.Handle("/healthz", opts.Health).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Recover, middleware.Tracing, middleware.RequestLogger, middleware.LoadSession(h.sessions))

	authed := func(f http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(f)
	}
	manager := func(f http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(middleware.RequireManager(f))
	}
	create := func(f http.HandlerFunc) http.HandlerFunc {
		if opts.ReplayCache == nil {
			return f
		}
		return middleware.Idempotency(opts.ReplayCache, middleware.DefaultReplayTTL)(f).ServeHTTP
	}

	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.Handle("/auth/me", authed(h.Me)).Methods(http.MethodGet)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	api.Handle("/tasks", manager(h.ListTasks)).Methods(http.MethodGet)
	api.Handle("/tasks", manager(create(h.CreateTask))).Methods(http.MethodPost)
	api.Handle("/my-tasks", authed(h.MyTasks)).Methods(http.MethodGet)
	api.Handle("/tasks/{id}", authed(h.UpdateTask)).Methods(http.MethodPatch)
	api.Handle("/tasks/{id}", manager(h.DeleteTask)).Methods(http.MethodDelete)

	api.Handle("/employees", manager(h.ListEmployees)).Methods(http.MethodGet)
	api.Handle("/employees", manager(create(h.CreateEmployee))).Methods(http.MethodPost)

	api.Handle("/complaints", authed(h.ListComplaints)).Methods(http.MethodGet)
	api.Handle("/complaints", authed(create(h.CreateComplaint))).Methods(http.MethodPost)
	api.Handle("/my-complaints", authed(h.MyComplaints)).Methods(http.MethodGet)
	api.Handle("/complaints/{id}", manager(h.UpdateComplaint)).Methods(http.MethodPatch)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", middleware.IdempotencyHeader},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
