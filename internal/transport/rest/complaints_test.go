package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintIsAlwaysOpen(t *testing.T) {
	f := newFixture(t)
	res := f.employee.do(http.MethodPost, "/api/complaints",
		map[string]any{"title": "Noise", "description": "too loud", "status": "resolved"})
	require.Equal(t, http.StatusOK, res.status)
	c := decode[map[string]any](t, res)
	assert.Equal(t, "open", c["status"])
	assert.Equal(t, f.empID, c["employeeId"])

	res = f.employee.do(http.MethodPost, "/api/complaints", map[string]any{"title": "Noise"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Description is required", message(t, res))
}

func TestComplaintsAreRoleScoped(t *testing.T) {
	f := newFixture(t)
	f.employee.do(http.MethodPost, "/api/complaints", map[string]any{"title": "A", "description": "a"})
	f.other.do(http.MethodPost, "/api/complaints", map[string]any{"title": "B", "description": "b"})

	all := decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/complaints", nil))
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0]["title"])

	own := decode[[]map[string]any](t, f.employee.do(http.MethodGet, "/api/complaints", nil))
	require.Len(t, own, 1)
	assert.Equal(t, "A", own[0]["title"])

	mine := decode[[]map[string]any](t, f.other.do(http.MethodGet, "/api/my-complaints", nil))
	require.Len(t, mine, 1)
	assert.Equal(t, "B", mine[0]["title"])

	anon := newClient(t, f.env)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/complaints", nil).status)
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/api/complaints", map[string]any{"title": "x", "description": "y"}).status)
}

func TestUpdateComplaint(t *testing.T) {
	f := newFixture(t)
	c := decode[map[string]any](t, f.employee.do(http.MethodPost, "/api/complaints",
		map[string]any{"title": "Broken equipment", "description": "printer"}))
	path := "/api/complaints/" + c["id"].(string)

	res := f.employee.do(http.MethodPatch, path, map[string]any{"status": "resolved"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = f.manager.do(http.MethodPatch, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Invalid status", message(t, res))

	res = f.manager.do(http.MethodPatch, "/api/complaints/missing", map[string]any{"status": "resolved"})
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Complaint not found", message(t, res))
}

// An employee files a complaint, the manager resolves it and the employee
// sees the new status.
func TestComplaintLifecycle(t *testing.T) {
	f := newFixture(t)
	c := decode[map[string]any](t, f.employee.do(http.MethodPost, "/api/complaints",
		map[string]any{"title": "Broken equipment", "description": "printer jams"}))

	all := decode[[]map[string]any](t, f.manager.do(http.MethodGet, "/api/complaints", nil))
	require.Len(t, all, 1)
	assert.Equal(t, "open", all[0]["status"])

	res := f.manager.do(http.MethodPatch, "/api/complaints/"+c["id"].(string), map[string]any{"status": "resolved"})
	require.Equal(t, http.StatusOK, res.status)

	mine := decode[[]map[string]any](t, f.employee.do(http.MethodGet, "/api/my-complaints", nil))
	require.Len(t, mine, 1)
	assert.Equal(t, "resolved", mine[0]["status"])
}

func TestUnknownRoute(t *testing.T) {
	env := newEnv(t)
	res := newClient(t, env).do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Not found", message(t, res))
}
