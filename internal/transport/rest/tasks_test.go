package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_tracker/internal/middleware"
)

type fixture struct {
	env      *testEnv
	manager  *client
	employee *client
	other    *client
	empID    string
	otherID  string
}

func newFixture(t *testing.T, opts ...envOption) *fixture {
	t.Helper()
	env := newEnv(t, opts...)
	f := &fixture{env: env, manager: newClient(t, env), employee: newClient(t, env), other: newClient(t, env)}
	f.manager.register("Mia Manager", "m@x.com", "secret1", "manager")
	f.empID = f.createEmployee(t, "Eve Employee", "e@x.com", "secret2")
	f.otherID = f.createEmployee(t, "Oli Other", "o@x.com", "secret3")
	f.employee.login("e@x.com", "secret2")
	f.other.login("o@x.com", "secret3")
	return f
}

func (f *fixture) createEmployee(t *testing.T, name, email, password string) string {
	t.Helper()
	res := f.manager.do(http.MethodPost, "/api/employees", map[string]any{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	return decode[map[string]any](t, res)["id"].(string)
}

func (f *fixture) createTask(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	res := f.manager.do(http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	return decode[map[string]any](t, res)
}

func TestTaskRoutesAreGated(t *testing.T) {
	f := newFixture(t)
	anon := newClient(t, f.env)

	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/tasks", nil).status)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/my-tasks", nil).status)

	for _, res := range []response{
		f.employee.do(http.MethodGet, "/api/tasks", nil),
		f.employee.do(http.MethodPost, "/api/tasks", map[string]any{"title": "t", "description": "d"}),
		f.employee.do(http.MethodDelete, "/api/tasks/whatever", nil),
		f.employee.do(http.MethodGet, "/api/employees", nil),
	} {
		assert.Equal(t, http.StatusForbidden, res.status)
		assert.Equal(t, "Manager access required", message(t, res))
	}
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"missing title", map[string]any{"description": "d"}, "Title is required"},
		{"missing description", map[string]any{"title": "t"}, "Description is required"},
		{"bad status", map[string]any{"title": "t", "description": "d", "status": "done"}, "Invalid status"},
		{"unknown assignee", map[string]any{"title": "t", "description": "d", "assignedTo": "nobody"}, "Assigned user must be an existing employee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.manager.do(http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, res.status)
			assert.Equal(t, tt.message, message(t, res))
		})
	}
}

func TestUnassignedTaskStaysOffMyTasks(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, map[string]any{"title": "Write report", "description": "Q3", "assignedTo": nil})
	assert.Equal(t, "pending", task["status"])
	assert.Nil(t, task["assignedTo"])
	assert.Nil(t, task["link"])

	all := decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/tasks", nil))
	require.Len(t, all, 1)
	assert.Equal(t, task["id"], all[0]["id"])

	for _, c := range []*client{f.employee, f.other} {
		mine := decode[[]map[string]any](t, c.do(http.MethodGet, "/api/my-tasks", nil))
		assert.Empty(t, mine)
	}
}

func TestEmployeeCanOnlyUpdateOwnTasks(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, map[string]any{"title": "Fix bug", "description": "crash", "assignedTo": f.empID})
	path := "/api/tasks/" + task["id"].(string)

	res := f.other.do(http.MethodPatch, path, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "Not authorized to update this task", message(t, res))

	res = f.other.do(http.MethodPatch, path, map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = f.employee.do(http.MethodPatch, path, map[string]any{"assignedTo": f.otherID})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = f.employee.do(http.MethodPatch, path, map[string]any{"status": "bogus", "assignedTo": f.otherID})
	assert.Equal(t, http.StatusForbidden, res.status)

	all := decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/tasks", nil))
	assert.Equal(t, "pending", all[0]["status"])
	assert.Equal(t, f.empID, all[0]["assignedTo"])

	res = f.employee.do(http.MethodPatch, path, map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "in_progress", decode[map[string]any](t, res)["status"])

	res = f.employee.do(http.MethodPatch, path, map[string]any{"status": "finished"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Invalid status", message(t, res))
}

func TestUpdateMissingTask(t *testing.T) {
	f := newFixture(t)
	res := f.manager.do(http.MethodPatch, "/api/tasks/does-not-exist", map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Task not found", message(t, res))

	res = f.manager.do(http.MethodPatch, "/api/tasks/does-not-exist", map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestManagerReassignsAndUnassigns(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, map[string]any{"title": "Ship it", "description": "release", "assignedTo": f.empID})
	path := "/api/tasks/" + task["id"].(string)

	res := f.manager.do(http.MethodPatch, path, map[string]any{"assignedTo": f.otherID})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	assert.Equal(t, f.otherID, decode[map[string]any](t, res)["assignedTo"])
	assert.Empty(t, decode[[]map[string]any](t, f.employee.do(http.MethodGet, "/api/my-tasks", nil)))
	assert.Len(t, decode[[]map[string]any](t, f.other.do(http.MethodGet, "/api/my-tasks", nil)), 1)

	managerID := decode[userEnvelope](t, f.manager.do(http.MethodGet, "/api/auth/me", nil)).User["id"]
	res = f.manager.do(http.MethodPatch, path, map[string]any{"assignedTo": managerID})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Assigned user must be an existing employee", message(t, res))

	res = f.manager.do(http.MethodPatch, path, `{"assignedTo":null}`)
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	assert.Nil(t, decode[map[string]any](t, res)["assignedTo"])
	assert.Empty(t, decode[[]map[string]any](t, f.other.do(http.MethodGet, "/api/my-tasks", nil)))
}

func TestDeleteTaskIsIdempotent(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, map[string]any{"title": "Temp", "description": "x"})
	path := "/api/tasks/" + task["id"].(string)

	for i := 0; i < 2; i++ {
		res := f.manager.do(http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusOK, res.status)
		assert.Equal(t, "Task deleted", message(t, res))
	}
	res := f.manager.do(http.MethodDelete, "/api/tasks/never-existed", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Empty(t, decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/tasks", nil)))
}

func TestTasksNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.createTask(t, map[string]any{"title": "first", "description": "x"})
	second := f.createTask(t, map[string]any{"title": "second", "description": "x"})

	all := decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/tasks", nil))
	require.Len(t, all, 2)
	assert.Equal(t, second["id"], all[0]["id"])
	assert.Equal(t, first["id"], all[1]["id"])
}

func TestStorageFailureIsGeneric(t *testing.T) {
	f := newFixture(t)
	f.env.storage.mu.Lock()
	f.env.storage.failTasks = true
	f.env.storage.mu.Unlock()

	res := f.manager.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "Failed to fetch tasks", message(t, res))
	assert.NotContains(t, string(res.body), "connection refused")
}

func TestCreateTaskReplaysIdempotencyKey(t *testing.T) {
	f := newFixture(t, withReplayCache(middleware.NewMemoryCache()))
	body := map[string]any{"title": "Once", "description": "only once"}

	first := f.manager.do(http.MethodPost, "/api/tasks", body, middleware.IdempotencyHeader, "abc")
	again := f.manager.do(http.MethodPost, "/api/tasks", body, middleware.IdempotencyHeader, "abc")
	require.Equal(t, http.StatusOK, first.status)
	require.Equal(t, http.StatusOK, again.status)
	assert.JSONEq(t, string(first.body), string(again.body))
	assert.Equal(t, "true", again.header.Get("Idempotent-Replayed"))
	assert.Len(t, decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/tasks", nil)), 1)

	f.manager.do(http.MethodPost, "/api/tasks", body)
	assert.Len(t, decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/tasks", nil)), 2)
}

// Manager creates a task, hands it to a new employee, the employee finishes
// it and the manager sees the result.
func TestTaskLifecycle(t *testing.T) {
	env := newEnv(t)
	manager := newClient(t, env)
	manager.register("Mia Manager", "m@x.com", "secret1", "manager")
	manager.login("m@x.com", "secret1")

	task := decode[map[string]any](t, manager.do(http.MethodPost, "/api/tasks",
		map[string]any{"title": "Write report", "description": "quarterly", "assignedTo": nil}))
	all := decode[[]map[string]any](t, manager.do(http.MethodGet, "/api/tasks", nil))
	require.Len(t, all, 1)
	assert.Equal(t, "pending", all[0]["status"])

	emp := decode[map[string]any](t, manager.do(http.MethodPost, "/api/employees",
		map[string]any{"name": "Eve Employee", "email": "e@x.com", "password": "secret2"}))
	path := "/api/tasks/" + task["id"].(string)
	require.Equal(t, http.StatusOK, manager.do(http.MethodPatch, path, map[string]any{"assignedTo": emp["id"]}).status)

	employee := newClient(t, env)
	employee.login("e@x.com", "secret2")
	mine := decode[[]map[string]any](t, employee.do(http.MethodGet, "/api/my-tasks", nil))
	require.Len(t, mine, 1)
	assert.Equal(t, task["id"], mine[0]["id"])
	require.Equal(t, http.StatusOK, employee.do(http.MethodPatch, path, map[string]any{"status": "completed"}).status)

	all = decode[[]map[string]any](t, manager.do(http.MethodGet, "/api/tasks", nil))
	assert.Equal(t, "completed", all[0]["status"])
}
