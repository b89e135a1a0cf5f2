package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
)

const (
	rowTimeout  = 3 * time.Second
	listTimeout = 5 * time.Second

	userColumns      = `id, name, email, password, role, created_at`
	taskColumns      = `id, title, description, link, status, assigned_to, created_by, created_at`
	complaintColumns = `id, title, description, status, employee_id, created_at`
)

// Store implements repository.Storage with hand-written SQL over database/sql.
type Store struct {
	db      *sql.DB
	dialect string
	clock   repository.Clock
}

var _ repository.Storage = (*Store)(nil)

type Option func(*Store)

func WithClock(c repository.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(db *sql.DB, dialect string, opts ...Option) *Store {
	s := &Store{db: db, dialect: dialect}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) q(query string) string {
	return rebind(s.dialect, query)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func scanTask(sc scanner) (*domain.Task, error) {
	var t domain.Task
	var status string
	var link, assignedTo sql.NullString
	if err := sc.Scan(&t.ID, &t.Title, &t.Description, &link, &status, &assignedTo, &t.CreatedBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Link = fromNull(link)
	t.AssignedTo = fromNull(assignedTo)
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func scanComplaint(sc scanner) (*domain.Complaint, error) {
	var c domain.Complaint
	var status string
	if err := sc.Scan(&c.ID, &c.Title, &c.Description, &status, &c.EmployeeID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.ComplaintStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// queryOne runs a single-row query and maps sql.ErrNoRows to (nil, nil).
func queryOne[T any](ctx context.Context, s *Store, scan func(scanner) (*T, error), query string, args ...any) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, rowTimeout)
	defer cancel()
	v, err := scan(s.db.QueryRowContext(ctx, s.q(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func queryMany[T any](ctx context.Context, s *Store, scan func(scanner) (*T, error), query string, args ...any) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, rowTimeout)
	defer cancel()
	return s.db.ExecContext(ctx, s.q(query), args...)
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return queryOne(ctx, s, scanUser, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return queryOne(ctx, s, scanUser, `SELECT `+userColumns+` FROM users WHERE email = ?`, repository.NormalizeEmail(email))
}

func (s *Store) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	u := &domain.User{
		ID:        repository.NewID(),
		Name:      nu.Name,
		Email:     repository.NormalizeEmail(nu.Email),
		Password:  nu.Password,
		Role:      nu.Role,
		CreatedAt: s.clock.Now(),
	}
	_, err := s.exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Password, string(u.Role), u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetEmployees(ctx context.Context) ([]domain.User, error) {
	return queryMany(ctx, s, scanUser, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at DESC, id DESC`, string(domain.RoleEmployee))
}

func (s *Store) GetTasks(ctx context.Context) ([]domain.Task, error) {
	return queryMany(ctx, s, scanTask, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id DESC`)
}

func (s *Store) GetTasksByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	return queryMany(ctx, s, scanTask, `SELECT `+taskColumns+` FROM tasks WHERE assigned_to = ? ORDER BY created_at DESC, id DESC`, assigneeID)
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return queryOne(ctx, s, scanTask, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
}

func (s *Store) CreateTask(ctx context.Context, nt domain.NewTask, createdBy string) (*domain.Task, error) {
	t := &domain.Task{
		ID:          repository.NewID(),
		Title:       nt.Title,
		Description: nt.Description,
		Link:        nt.Link,
		Status:      repository.TaskStatusOrDefault(nt.Status),
		AssignedTo:  nt.AssignedTo,
		CreatedBy:   createdBy,
		CreatedAt:   s.clock.Now(),
	}
	_, err := s.exec(ctx, `INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, toNull(t.Link), string(t.Status), toNull(t.AssignedTo), t.CreatedBy, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// UpdateTask only touches the columns present in the update.
func (s *Store) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	if upd.Empty() {
		return s.GetTask(ctx, id)
	}
	var sets []string
	var args []any
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		if upd.Unassigns() {
			args = append(args, nil)
		} else {
			args = append(args, *upd.AssignedTo)
		}
	}
	args = append(args, id)
	res, err := s.exec(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return s.GetTask(ctx, id)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *Store) GetComplaints(ctx context.Context) ([]domain.Complaint, error) {
	return queryMany(ctx, s, scanComplaint, `SELECT `+complaintColumns+` FROM complaints ORDER BY created_at DESC, id DESC`)
}

func (s *Store) GetComplaintsByEmployee(ctx context.Context, employeeID string) ([]domain.Complaint, error) {
	return queryMany(ctx, s, scanComplaint, `SELECT `+complaintColumns+` FROM complaints WHERE employee_id = ? ORDER BY created_at DESC, id DESC`, employeeID)
}

func (s *Store) CreateComplaint(ctx context.Context, nc domain.NewComplaint, employeeID string) (*domain.Complaint, error) {
	c := &domain.Complaint{
		ID:          repository.NewID(),
		Title:       nc.Title,
		Description: nc.Description,
		Status:      domain.ComplaintStatusOpen,
		EmployeeID:  employeeID,
		CreatedAt:   s.clock.Now(),
	}
	_, err := s.exec(ctx, `INSERT INTO complaints (`+complaintColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, string(c.Status), c.EmployeeID, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert complaint: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateComplaint(ctx context.Context, id string, upd domain.ComplaintUpdate) (*domain.Complaint, error) {
	if upd.Status != nil {
		res, err := s.exec(ctx, `UPDATE complaints SET status = ? WHERE id = ?`, string(*upd.Status), id)
		if err != nil {
			return nil, fmt.Errorf("update complaint: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, nil
		}
	}
	return queryOne(ctx, s, scanComplaint, `SELECT `+complaintColumns+` FROM complaints WHERE id = ?`, id)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func toNull(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
