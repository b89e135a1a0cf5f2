package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"task_tracker/internal/domain"
	"task_tracker/internal/utils"
)

func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.storage.GetTasks(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to fetch tasks")
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) MyTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.storage.GetTasksByAssignee(r.Context(), currentSession(r).UserID)
	if err != nil {
		respondError(w, r, err, "Failed to fetch tasks")
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err, "Failed to create task")
		return
	}
	nt := req.toDomain()
	if nt.AssignedTo != nil {
		if err := h.requireEmployee(r, *nt.AssignedTo); err != nil {
			respondError(w, r, err, "Failed to create task")
			return
		}
	}
	task, err := h.storage.CreateTask(r.Context(), nt, currentSession(r).UserID)
	if err != nil {
		respondError(w, r, err, "Failed to create task")
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

// UpdateTask lets the assignee change the status of their own task. Managers
// may update any task and also reassign it; a null assignedTo unassigns.
// Ownership is settled before the body's fields are validated.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to update task"
	id := mux.Vars(r)["id"]
	s := currentSession(r)

	task, err := h.storage.GetTask(r.Context(), id)
	if err != nil {
		respondError(w, r, err, fallback)
		return
	}
	if task == nil {
		respondError(w, r, domain.NotFound("Task not found"), fallback)
		return
	}
	if !s.IsManager() && !task.IsAssignedTo(s.UserID) {
		respondError(w, r, domain.Forbidden("Not authorized to update this task"), fallback)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, fallback)
		return
	}
	if !s.IsManager() && req.AssignedTo.Set {
		respondError(w, r, domain.Forbidden("Not authorized to update this task"), fallback)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		respondError(w, r, err, fallback)
		return
	}

	var upd domain.TaskUpdate
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		upd.Status = &status
	}
	if req.AssignedTo.Set {
		assignee := nonEmpty(req.AssignedTo.Value)
		if assignee == nil {
			unassigned := ""
			assignee = &unassigned
		} else if err := h.requireEmployee(r, *assignee); err != nil {
			respondError(w, r, err, fallback)
			return
		}
		upd.AssignedTo = assignee
	}

	updated, err := h.storage.UpdateTask(r.Context(), id, upd)
	if err != nil {
		respondError(w, r, err, fallback)
		return
	}
	if updated == nil {
		respondError(w, r, domain.NotFound("Task not found"), fallback)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// DeleteTask succeeds whether or not the task exists.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, r, err, "Failed to delete task")
		return
	}
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Task deleted"})
}
