package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateUpAndDown(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("STORAGE_DRIVER", "sql")
	t.Setenv("STORAGE_DIALECT", "sqlite")
	t.Setenv("DATABASE_URL", dsn)

	out, err := runCLI(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = runCLI(t, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "rolled back")
}

func TestMigrateRejectsMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	_, err := runCLI(t, "migrate", "up")
	assert.ErrorContains(t, err, "no schema migrations")

	_, err = runCLI(t, "migrate", "down")
	assert.ErrorContains(t, err, "only supported for the sql driver")
}

func TestUnknownCommand(t *testing.T) {
	_, err := runCLI(t, "frobnicate")
	assert.Error(t, err)
}
