// Package memrepo is a process-local Storage used for development and tests.
// Nothing survives a restart.
package memrepo

import (
	"context"
	"sort"
	"sync"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
)

type record[T any] struct {
	seq int64
	val T
}

type Store struct {
	mu         sync.RWMutex
	clock      repository.Clock
	seq        int64
	users      map[string]record[domain.User]
	tasks      map[string]record[domain.Task]
	complaints map[string]record[domain.Complaint]
}

var _ repository.Storage = (*Store)(nil)

type Option func(*Store)

func WithClock(c repository.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(opts ...Option) *Store {
	s := &Store{
		users:      map[string]record[domain.User]{},
		tasks:      map[string]record[domain.Task]{},
		complaints: map[string]record[domain.Complaint]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	u := r.val
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	email = repository.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.users {
		if r.val.Email == email {
			u := r.val
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateUser(_ context.Context, nu domain.NewUser) (*domain.User, error) {
	email := repository.NormalizeEmail(nu.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.users {
		if r.val.Email == email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	u := domain.User{
		ID:        repository.NewID(),
		Name:      nu.Name,
		Email:     email,
		Password:  nu.Password,
		Role:      nu.Role,
		CreatedAt: s.clock.Now(),
	}
	s.users[u.ID] = record[domain.User]{seq: s.next(), val: u}
	return &u, nil
}

func (s *Store) GetEmployees(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.users, func(u domain.User) bool { return u.Role == domain.RoleEmployee }), nil
}

func (s *Store) GetTasks(_ context.Context) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.tasks, nil), nil
}

func (s *Store) GetTasksByAssignee(_ context.Context, assigneeID string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.tasks, func(t domain.Task) bool { return t.IsAssignedTo(assigneeID) }), nil
}

func (s *Store) GetTask(_ context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	t := r.val
	return &t, nil
}

func (s *Store) CreateTask(_ context.Context, nt domain.NewTask, createdBy string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := domain.Task{
		ID:          repository.NewID(),
		Title:       nt.Title,
		Description: nt.Description,
		Link:        cloneString(nt.Link),
		Status:      repository.TaskStatusOrDefault(nt.Status),
		AssignedTo:  cloneString(nt.AssignedTo),
		CreatedBy:   createdBy,
		CreatedAt:   s.clock.Now(),
	}
	s.tasks[t.ID] = record[domain.Task]{seq: s.next(), val: t}
	return &t, nil
}

func (s *Store) UpdateTask(_ context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	if upd.Status != nil {
		r.val.Status = *upd.Status
	}
	if upd.Unassigns() {
		r.val.AssignedTo = nil
	} else if upd.AssignedTo != nil {
		r.val.AssignedTo = cloneString(upd.AssignedTo)
	}
	s.tasks[id] = r
	t := r.val
	return &t, nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *Store) GetComplaints(_ context.Context) ([]domain.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.complaints, nil), nil
}

func (s *Store) GetComplaintsByEmployee(_ context.Context, employeeID string) ([]domain.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.complaints, func(c domain.Complaint) bool { return c.EmployeeID == employeeID }), nil
}

func (s *Store) CreateComplaint(_ context.Context, nc domain.NewComplaint, employeeID string) (*domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Complaint{
		ID:          repository.NewID(),
		Title:       nc.Title,
		Description: nc.Description,
		Status:      domain.ComplaintStatusOpen,
		EmployeeID:  employeeID,
		CreatedAt:   s.clock.Now(),
	}
	s.complaints[c.ID] = record[domain.Complaint]{seq: s.next(), val: c}
	return &c, nil
}

func (s *Store) UpdateComplaint(_ context.Context, id string, upd domain.ComplaintUpdate) (*domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.complaints[id]
	if !ok {
		return nil, nil
	}
	if upd.Status != nil {
		r.val.Status = *upd.Status
	}
	s.complaints[id] = r
	c := r.val
	return &c, nil
}

// newestFirst filters m and sorts by insertion order, latest first. Insertion
// order matches createdAt for a monotonic clock and breaks ties otherwise.
func newestFirst[T any](m map[string]record[T], keep func(T) bool) []T {
	recs := make([]record[T], 0, len(m))
	for _, r := range m {
		if keep == nil || keep(r.val) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.val
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
