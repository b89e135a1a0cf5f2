package rest

import (
	"net/http"

	"task_tracker/internal/domain"
)

// employeeResponse adds the remembered plaintext password, when the
// credentials cache still holds one.
type employeeResponse struct {
	domain.User
	PlainPassword string `json:"plainPassword,omitempty"`
}

func (h *Handlers) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.storage.GetEmployees(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to fetch employees")
		return
	}
	out := make([]employeeResponse, len(employees))
	for i, e := range employees {
		out[i] = employeeResponse{User: e}
		if pw, ok := h.credentials.Get(e.ID); ok {
			out[i].PlainPassword = pw
		}
	}
	respondWithJSON(w, http.StatusOK, out)
}

// CreateEmployee always creates an employee account, whatever role the body
// asks for, and echoes the plaintext password once.
func (h *Handlers) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err, "Failed to create employee")
		return
	}
	user, err := h.createUser(r, domain.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.RoleEmployee,
	})
	if err != nil {
		respondError(w, r, err, "Failed to create employee")
		return
	}
	h.credentials.Put(user.ID, req.Password)
	respondWithJSON(w, http.StatusOK, employeeResponse{User: *user, PlainPassword: req.Password})
}
