// Package repotest holds the behavioural contract every repository.Storage
// backend must satisfy. Backend packages call Run from their own tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_tracker/internal/domain"
	"task_tracker/internal/repository"
	"task_tracker/internal/testutil"
)

// Factory returns an empty storage whose timestamps come from clock.
type Factory func(t *testing.T, clock repository.Clock) repository.Storage

func Run(t *testing.T, newStorage Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s repository.Storage)
	}{
		{"Users", testUsers},
		{"DuplicateEmail", testDuplicateEmail},
		{"EmailIsCaseInsensitive", testEmailCaseInsensitive},
		{"EmployeesNewestFirst", testEmployeesNewestFirst},
		{"TasksNewestFirst", testTasksNewestFirst},
		{"TasksByAssignee", testTasksByAssignee},
		{"UpdateTask", testUpdateTask},
		{"UpdateTaskMissing", testUpdateTaskMissing},
		{"DeleteTaskIdempotent", testDeleteTask},
		{"ComplaintsForcedOpen", testComplaintsForcedOpen},
		{"ComplaintsNewestFirst", testComplaintsNewestFirst},
		{"UpdateComplaint", testUpdateComplaint},
		{"UnknownIDs", testUnknownIDs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := testutil.NewClock()
			tc.fn(t, newStorage(t, clock.Now))
		})
	}

	t.Run("SameInstantKeepsCreationOrder", func(t *testing.T) {
		instant := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		testSameInstantOrder(t, newStorage(t, func() time.Time { return instant }))
	})
}

// testSameInstantOrder pins the clock so every record shares a timestamp;
// lists must still come back newest-first by creation order.
func testSameInstantOrder(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	manager := mustUser(t, s, "m@x.com", domain.RoleManager)
	var employees, tasks, complaints []string
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		emp := mustUser(t, s, email, domain.RoleEmployee)
		employees = append([]string{emp.ID}, employees...)

		task := mustTask(t, s, "task for "+email, manager.ID, &emp.ID)
		tasks = append([]string{task.ID}, tasks...)

		c, err := s.CreateComplaint(ctx, domain.NewComplaint{Title: "from " + email, Description: "d"}, emp.ID)
		require.NoError(t, err)
		complaints = append([]string{c.ID}, complaints...)
	}

	gotEmployees, err := s.GetEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, employees, userIDs(gotEmployees))

	gotTasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, tasks, taskIDs(gotTasks))

	gotComplaints, err := s.GetComplaints(ctx)
	require.NoError(t, err)
	assert.Equal(t, complaints, complaintIDs(gotComplaints))
}

func mustUser(t *testing.T, s repository.Storage, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.NewUser{
		Name:     "User " + email,
		Email:    email,
		Password: "$2a$10$hash",
		Role:     role,
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func mustTask(t *testing.T, s repository.Storage, title string, createdBy string, assignee *string) *domain.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), domain.NewTask{
		Title:       title,
		Description: "description of " + title,
		AssignedTo:  assignee,
	}, createdBy)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func ptr[T any](v T) *T { return &v }

func testUsers(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	created := mustUser(t, s, "m@x.com", domain.RoleManager)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.RoleManager, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, created.Email, byID.Email)
	assert.Equal(t, created.Name, byID.Name)
	assert.Equal(t, "$2a$10$hash", byID.Password)
	assert.True(t, created.CreatedAt.Equal(byID.CreatedAt), "createdAt %v != %v", created.CreatedAt, byID.CreatedAt)

	byEmail, err := s.GetUserByEmail(ctx, "m@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)
}

func testDuplicateEmail(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	mustUser(t, s, "dup@x.com", domain.RoleEmployee)

	_, err := s.CreateUser(ctx, domain.NewUser{Name: "Again", Email: "dup@x.com", Password: "h", Role: domain.RoleEmployee})
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)

	employees, err := s.GetEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1)
}

func testEmailCaseInsensitive(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	u := mustUser(t, s, "Mixed.Case@X.com", domain.RoleEmployee)
	assert.Equal(t, "mixed.case@x.com", u.Email)

	found, err := s.GetUserByEmail(ctx, "MIXED.case@x.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.CreateUser(ctx, domain.NewUser{Name: "Other", Email: "mixed.case@x.com", Password: "h", Role: domain.RoleEmployee})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func testEmployeesNewestFirst(t *testing.T, s repository.Storage) {
	e1 := mustUser(t, s, "e1@x.com", domain.RoleEmployee)
	mustUser(t, s, "boss@x.com", domain.RoleManager)
	e2 := mustUser(t, s, "e2@x.com", domain.RoleEmployee)
	e3 := mustUser(t, s, "e3@x.com", domain.RoleEmployee)

	employees, err := s.GetEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 3)
	assert.Equal(t, []string{e3.ID, e2.ID, e1.ID}, userIDs(employees))
	for _, e := range employees {
		assert.Equal(t, domain.RoleEmployee, e.Role)
	}
}

func testTasksNewestFirst(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	empty, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty, "empty list must not be nil")
	assert.Empty(t, empty)

	m := mustUser(t, s, "m@x.com", domain.RoleManager)
	t1 := mustTask(t, s, "first", m.ID, nil)
	t2 := mustTask(t, s, "second", m.ID, nil)
	t3 := mustTask(t, s, "third", m.ID, nil)

	tasks, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{t3.ID, t2.ID, t1.ID}, taskIDs(tasks))

	assert.Equal(t, domain.TaskStatusPending, t1.Status)
	assert.Nil(t, t1.AssignedTo)
	assert.Nil(t, t1.Link)
	assert.Equal(t, m.ID, t1.CreatedBy)
}

func testTasksByAssignee(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	m := mustUser(t, s, "m@x.com", domain.RoleManager)
	e1 := mustUser(t, s, "e1@x.com", domain.RoleEmployee)
	e2 := mustUser(t, s, "e2@x.com", domain.RoleEmployee)

	a := mustTask(t, s, "a", m.ID, &e1.ID)
	mustTask(t, s, "unassigned", m.ID, nil)
	mustTask(t, s, "other", m.ID, &e2.ID)
	b, err := s.CreateTask(ctx, domain.NewTask{
		Title:       "b",
		Description: "with link",
		Link:        ptr("https://example.com/doc"),
		Status:      domain.TaskStatusInProgress,
		AssignedTo:  &e1.ID,
	}, m.ID)
	require.NoError(t, err)

	mine, err := s.GetTasksByAssignee(ctx, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, taskIDs(mine))
	require.NotNil(t, mine[0].Link)
	assert.Equal(t, "https://example.com/doc", *mine[0].Link)
	assert.Equal(t, domain.TaskStatusInProgress, mine[0].Status)

	all, err := s.GetTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testUpdateTask(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	m := mustUser(t, s, "m@x.com", domain.RoleManager)
	e1 := mustUser(t, s, "e1@x.com", domain.RoleEmployee)
	e2 := mustUser(t, s, "e2@x.com", domain.RoleEmployee)
	task := mustTask(t, s, "t", m.ID, &e1.ID)

	updated, err := s.UpdateTask(ctx, task.ID, domain.TaskUpdate{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, e1.ID, *updated.AssignedTo)

	updated, err = s.UpdateTask(ctx, task.ID, domain.TaskUpdate{AssignedTo: &e2.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, e2.ID, *updated.AssignedTo)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)

	updated, err = s.UpdateTask(ctx, task.ID, domain.TaskUpdate{AssignedTo: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)

	unchanged, err := s.UpdateTask(ctx, task.ID, domain.TaskUpdate{})
	require.NoError(t, err)
	require.NotNil(t, unchanged)
	assert.Equal(t, domain.TaskStatusCompleted, unchanged.Status)

	stored, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	assert.Nil(t, stored.AssignedTo)
	assert.True(t, task.CreatedAt.Equal(stored.CreatedAt))
}

func testUpdateTaskMissing(t *testing.T, s repository.Storage) {
	got, err := s.UpdateTask(context.Background(), missingID, domain.TaskUpdate{Status: ptr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testDeleteTask(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	m := mustUser(t, s, "m@x.com", domain.RoleManager)
	task := mustTask(t, s, "doomed", m.ID, nil)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	require.NoError(t, s.DeleteTask(ctx, missingID))
}

func testComplaintsForcedOpen(t *testing.T, s repository.Storage) {
	e := mustUser(t, s, "e@x.com", domain.RoleEmployee)
	c, err := s.CreateComplaint(context.Background(), domain.NewComplaint{Title: "Broken equipment", Description: "printer"}, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusOpen, c.Status)
	assert.Equal(t, e.ID, c.EmployeeID)
}

func testComplaintsNewestFirst(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	e1 := mustUser(t, s, "e1@x.com", domain.RoleEmployee)
	e2 := mustUser(t, s, "e2@x.com", domain.RoleEmployee)

	c1, err := s.CreateComplaint(ctx, domain.NewComplaint{Title: "one", Description: "d"}, e1.ID)
	require.NoError(t, err)
	c2, err := s.CreateComplaint(ctx, domain.NewComplaint{Title: "two", Description: "d"}, e2.ID)
	require.NoError(t, err)
	c3, err := s.CreateComplaint(ctx, domain.NewComplaint{Title: "three", Description: "d"}, e1.ID)
	require.NoError(t, err)

	all, err := s.GetComplaints(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c3.ID, c2.ID, c1.ID}, complaintIDs(all))

	mine, err := s.GetComplaintsByEmployee(ctx, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c3.ID, c1.ID}, complaintIDs(mine))
}

func testUpdateComplaint(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	e := mustUser(t, s, "e@x.com", domain.RoleEmployee)
	c, err := s.CreateComplaint(ctx, domain.NewComplaint{Title: "t", Description: "d"}, e.ID)
	require.NoError(t, err)

	resolved, err := s.UpdateComplaint(ctx, c.ID, domain.ComplaintUpdate{Status: ptr(domain.ComplaintStatusResolved)})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, domain.ComplaintStatusResolved, resolved.Status)

	same, err := s.UpdateComplaint(ctx, c.ID, domain.ComplaintUpdate{})
	require.NoError(t, err)
	require.NotNil(t, same)
	assert.Equal(t, domain.ComplaintStatusResolved, same.Status)

	missing, err := s.UpdateComplaint(ctx, missingID, domain.ComplaintUpdate{Status: ptr(domain.ComplaintStatusResolved)})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testUnknownIDs(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	for _, id := range []string{missingID, "not-an-id", ""} {
		u, err := s.GetUser(ctx, id)
		require.NoError(t, err, "GetUser(%q)", id)
		assert.Nil(t, u)

		task, err := s.GetTask(ctx, id)
		require.NoError(t, err, "GetTask(%q)", id)
		assert.Nil(t, task)
	}
	u, err := s.GetUserByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

// missingID is well-formed for every backend (UUID and ObjectID hex alike
// are plain strings) but never issued.
const missingID = "65a000000000000000000000"

func userIDs(us []domain.User) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.ID
	}
	return out
}

func taskIDs(ts []domain.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func complaintIDs(cs []domain.Complaint) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
