package domain

import "time"

// TaskStatus represents the progress of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work created by a manager. AssignedTo is nil while the
// task is unassigned.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        *string    `json:"link"`
	Status      TaskStatus `json:"status"`
	AssignedTo  *string    `json:"assignedTo"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

type NewTask struct {
	Title       string
	Description string
	Link        *string
	Status      TaskStatus
	AssignedTo  *string
}

// TaskUpdate carries a partial update. Nil fields are left unchanged; an
// AssignedTo pointing at "" clears the assignment.
type TaskUpdate struct {
	Status     *TaskStatus
	AssignedTo *string
}

func (u TaskUpdate) Empty() bool {
	return u.Status == nil && u.AssignedTo == nil
}

// Unassigns reports whether the update clears the assignee.
func (u TaskUpdate) Unassigns() bool {
	return u.AssignedTo != nil && *u.AssignedTo == ""
}
