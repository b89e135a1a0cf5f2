package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"task_tracker/internal/domain"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already registered.
var ErrDuplicateEmail = errors.New("duplicate email")

// NewID returns a UUIDv7. They sort in creation order, which breaks ties
// between records created in the same instant.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Storage is the persistence contract shared by every backend.
// Lookups return (nil, nil) when the record does not exist. Every list is
// ordered by creation time, newest first.
type Storage interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u domain.NewUser) (*domain.User, error)
	GetEmployees(ctx context.Context) ([]domain.User, error)

	GetTasks(ctx context.Context) ([]domain.Task, error)
	GetTasksByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	CreateTask(ctx context.Context, t domain.NewTask, createdBy string) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, u domain.TaskUpdate) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error

	GetComplaints(ctx context.Context) ([]domain.Complaint, error)
	GetComplaintsByEmployee(ctx context.Context, employeeID string) ([]domain.Complaint, error)
	CreateComplaint(ctx context.Context, c domain.NewComplaint, employeeID string) (*domain.Complaint, error)
	UpdateComplaint(ctx context.Context, id string, u domain.ComplaintUpdate) (*domain.Complaint, error)
}

// Clock supplies creation timestamps. Backends default to time.Now.
type Clock func() time.Time

// Now returns the current time truncated to microseconds, the finest
// precision every backend round-trips.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return c().UTC().Truncate(time.Microsecond)
}

// NormalizeEmail folds case so that lookups and the uniqueness constraint
// agree across backends. Casers are stateful, so one is built per call.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// TaskStatusOrDefault applies the pending default for new tasks.
func TaskStatusOrDefault(s domain.TaskStatus) domain.TaskStatus {
	if s == "" {
		return domain.TaskStatusPending
	}
	return s
}
