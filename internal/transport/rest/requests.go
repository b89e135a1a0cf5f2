package rest

import (
	"encoding/json"

	"task_tracker/internal/domain"
)

type registerRequest struct {
	Email    string  `json:"email" validate:"email" msg:"Invalid email address"`
	Password string  `json:"password" validate:"min=6,maxbytes=72" msg:"Password must be at least 6 characters" msg_maxbytes:"Password must be at most 72 bytes"`
	Name     string  `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
	Role     *string `json:"role" validate:"omitempty,oneof=manager employee" msg:"Invalid role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"email" msg:"Invalid email address"`
	Password string `json:"password" validate:"min=6,maxbytes=72" msg:"Password must be at least 6 characters" msg_maxbytes:"Password must be at most 72 bytes"`
}

type createEmployeeRequest struct {
	Email    string `json:"email" validate:"email" msg:"Invalid email address"`
	Password string `json:"password" validate:"min=6,maxbytes=72" msg:"Password must be at least 6 characters" msg_maxbytes:"Password must be at most 72 bytes"`
	Name     string `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
}

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required" msg:"Title is required"`
	Description string  `json:"description" validate:"required" msg:"Description is required"`
	Link        *string `json:"link"`
	Status      *string `json:"status" validate:"omitempty,task_status" msg:"Invalid status"`
	AssignedTo  *string `json:"assignedTo"`
}

func (req *createTaskRequest) toDomain() domain.NewTask {
	nt := domain.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Link:        nonEmpty(req.Link),
		AssignedTo:  nonEmpty(req.AssignedTo),
	}
	if req.Status != nil {
		nt.Status = domain.TaskStatus(*req.Status)
	}
	return nt
}

type updateTaskRequest struct {
	Status     *string        `json:"status" validate:"omitempty,task_status" msg:"Invalid status"`
	AssignedTo nullableString `json:"assignedTo"`
}

type createComplaintRequest struct {
	Title       string `json:"title" validate:"required" msg:"Title is required"`
	Description string `json:"description" validate:"required" msg:"Description is required"`
}

type updateComplaintRequest struct {
	Status *string `json:"status" validate:"required,complaint_status" msg:"Invalid status"`
}

// nullableString tells an absent field apart from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}
